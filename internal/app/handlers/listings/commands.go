package listings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"basobas/internal/app/commands"
	"basobas/internal/app/middleware"
	"basobas/internal/app/outbox"
	"basobas/internal/app/uow"
	domainlistings "basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
)

const (
	createListingKey = "listing.create"
	publishKey       = "listing.publish"
	updateKey        = "listing.update"
	removeKey        = "listing.remove"
	setLockKey       = "listing.set_lock"
	attachPhotoKey   = "listing.attach_photo"
)

var (
	ErrUnitOfWorkRequired = errors.New("listings: unit of work required")
	// ErrNotOwner guards every mutation path against actors that neither own
	// the listing nor hold the admin role.
	ErrNotOwner = errors.New("listings: acting user does not own this listing")
)

type CreateListingCommand struct {
	CommandID       string
	OwnerID         string
	Title           string
	Description     string
	DealType        string
	PriceAmount     int64
	Line1           string
	City            string
	Country         string
	Bedrooms        int
	Bathrooms       int
	AreaSqM         float64
	IdempotencyKeyV string
}

func (c CreateListingCommand) Key() string { return createListingKey }

func (c CreateListingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateListingCommand) ResultPrototype() any { return &CreateListingResult{} }

type CreateListingResult struct {
	ListingID string `json:"listing_id"`
	Status    string `json:"status"`
}

type CreateListingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*CreateListingResult, error) {
	dealType, err := domainlistings.ParseDealType(cmd.DealType)
	if err != nil {
		return nil, err
	}

	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(cmd.CommandID),
		Owner:       domainlistings.OwnerID(cmd.OwnerID),
		Title:       cmd.Title,
		Description: cmd.Description,
		DealType:    dealType,
		Price:       money.NPR(cmd.PriceAmount),
		Address: domainlistings.Address{
			Line1:   cmd.Line1,
			City:    cmd.City,
			Country: cmd.Country,
		},
		Bedrooms:  cmd.Bedrooms,
		Bathrooms: cmd.Bathrooms,
		AreaSqM:   cmd.AreaSqM,
		Now:       clock(h.Now),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &listing.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "owner", listing.Owner, "deal_type", listing.DealType)
	}
	return &CreateListingResult{ListingID: string(listing.ID), Status: string(listing.Status)}, nil
}

type PublishListingCommand struct {
	ListingID string
	OwnerID   string
	Publish   bool // false deactivates
}

func (c PublishListingCommand) Key() string { return publishKey }

type ListingStatusResult struct {
	ListingID string `json:"listing_id"`
	Status    string `json:"status"`
}

type PublishListingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *PublishListingHandler) Handle(ctx context.Context, cmd PublishListingCommand) (*ListingStatusResult, error) {
	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if string(listing.Owner) != cmd.OwnerID {
		return nil, ErrNotOwner
	}

	now := clock(h.Now)
	if cmd.Publish {
		err = listing.Publish(now)
	} else {
		err = listing.Deactivate(now)
	}
	if err != nil {
		return nil, err
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &listing.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	return &ListingStatusResult{ListingID: string(listing.ID), Status: string(listing.Status)}, nil
}

type UpdateListingCommand struct {
	ListingID   string
	OwnerID     string
	Title       string
	Description string
	PriceAmount int64
}

func (c UpdateListingCommand) Key() string { return updateKey }

type UpdateListingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*ListingStatusResult, error) {
	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if string(listing.Owner) != cmd.OwnerID {
		return nil, ErrNotOwner
	}
	if err := listing.UpdateDetails(cmd.Title, cmd.Description, money.NPR(cmd.PriceAmount), clock(h.Now)); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &listing.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	return &ListingStatusResult{ListingID: string(listing.ID), Status: string(listing.Status)}, nil
}

type RemoveListingCommand struct {
	ListingID string
	ActorID   string
	AsAdmin   bool
}

func (c RemoveListingCommand) Key() string { return removeKey }

type RemoveListingResult struct {
	ListingID        string `json:"listing_id"`
	OrphanedBookings int    `json:"orphaned_bookings"`
}

// RemoveListingHandler soft-removes a listing and orphans every still-active
// booking as property_deleted inside the same unit of work.
type RemoveListingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *RemoveListingHandler) Handle(ctx context.Context, cmd RemoveListingCommand) (*RemoveListingResult, error) {
	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if !cmd.AsAdmin && string(listing.Owner) != cmd.ActorID {
		return nil, ErrNotOwner
	}

	now := clock(h.Now)
	if err := listing.Remove(now); err != nil {
		return nil, err
	}

	bookings, err := unit.Bookings().ListByListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	orphaned := 0
	for _, bk := range bookings {
		if err := bk.MarkPropertyDeleted(now); err != nil {
			continue // terminal bookings keep their state
		}
		if err := unit.Bookings().Save(ctx, bk); err != nil {
			return nil, err
		}
		if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &bk.EventRecorder); err != nil {
			return nil, err
		}
		orphaned++
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &listing.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing removed", "listing_id", listing.ID, "orphaned_bookings", orphaned, "by_admin", cmd.AsAdmin)
	}
	return &RemoveListingResult{ListingID: string(listing.ID), OrphanedBookings: orphaned}, nil
}

type SetLockCommand struct {
	ListingID string
	Locked    bool
}

func (c SetLockCommand) Key() string { return setLockKey }

// SetLockHandler is the admin path freezing a listing's status against
// booking-driven reverts.
type SetLockHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *SetLockHandler) Handle(ctx context.Context, cmd SetLockCommand) (*ListingStatusResult, error) {
	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	now := clock(h.Now)
	if cmd.Locked {
		listing.Lock(now)
	} else {
		listing.Unlock(now)
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &listing.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing lock changed", "listing_id", listing.ID, "locked", cmd.Locked)
	}
	return &ListingStatusResult{ListingID: string(listing.ID), Status: string(listing.Status)}, nil
}

type AttachPhotoCommand struct {
	ListingID string
	OwnerID   string
	PhotoURL  string
}

func (c AttachPhotoCommand) Key() string { return attachPhotoKey }

type AttachPhotoHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *AttachPhotoHandler) Handle(ctx context.Context, cmd AttachPhotoCommand) (*ListingStatusResult, error) {
	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if string(listing.Owner) != cmd.OwnerID {
		return nil, ErrNotOwner
	}
	listing.AttachPhoto(cmd.PhotoURL, clock(h.Now))
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &listing.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	return &ListingStatusResult{ListingID: string(listing.ID), Status: string(listing.Status)}, nil
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

// beginUnit reuses the pipeline-provided unit of work or opens a managed one.
func beginUnit(ctx context.Context, factory uow.Factory) (uow.UnitOfWork, context.Context, func() error, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, func() error { return nil }, func() {}, nil
	}
	if factory == nil {
		return nil, ctx, nil, nil, ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, nil, err
	}
	execCtx := uow.ContextWithUnitOfWork(ctx, unit)
	committed := false
	commit := func() error {
		if err := unit.Commit(execCtx); err != nil {
			return err
		}
		committed = true
		return nil
	}
	rollback := func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}
	return unit, execCtx, commit, rollback, nil
}

var _ commands.Handler[CreateListingCommand, *CreateListingResult] = (*CreateListingHandler)(nil)
var _ commands.Handler[PublishListingCommand, *ListingStatusResult] = (*PublishListingHandler)(nil)
var _ commands.Handler[UpdateListingCommand, *ListingStatusResult] = (*UpdateListingHandler)(nil)
var _ commands.Handler[RemoveListingCommand, *RemoveListingResult] = (*RemoveListingHandler)(nil)
var _ commands.Handler[SetLockCommand, *ListingStatusResult] = (*SetLockHandler)(nil)
var _ commands.Handler[AttachPhotoCommand, *ListingStatusResult] = (*AttachPhotoHandler)(nil)
var _ middleware.IdempotentCommand = CreateListingCommand{}
