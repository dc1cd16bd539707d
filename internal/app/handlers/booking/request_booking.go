package booking

import (
	"context"
	"errors"
	"time"

	"basobas/internal/app/commands"
	"basobas/internal/app/middleware"
	"basobas/internal/app/outbox"
	"basobas/internal/app/uow"
	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
)

const requestBookingKey = "booking.request"

// DefaultPendingTTL bounds how long an owner has to decide on a booking
// before it expires. Overridable through configuration.
const DefaultPendingTTL = 48 * time.Hour

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	// ErrListingUnavailable rejects booking attempts on listings that are not
	// currently open for booking (pending, rented, sold, inactive, removed).
	ErrListingUnavailable = errors.New("booking: listing is not open for booking")
)

type RequestBookingCommand struct {
	CommandID       string
	ListingID       string
	UserID          string
	DealType        string
	StartDate       time.Time
	EndDate         time.Time
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID    string `json:"booking_id"`
	DurationDays int    `json:"duration_days,omitempty"`
	TotalAmount  int64  `json:"total_amount"`
	Currency     string `json:"currency"`
	ExpiresAt    string `json:"expires_at"`
}

type RequestBookingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	PendingTTL time.Duration
	Now        func() time.Time
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	now := h.now()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if listing.Removed || listing.Status != domainlistings.StatusActive {
		return nil, ErrListingUnavailable
	}
	if string(listing.Owner) == cmd.UserID {
		return nil, domainbooking.ErrOwnershipConflict
	}

	dealType, err := domainlistings.ParseDealType(cmd.DealType)
	if err != nil {
		return nil, err
	}
	if dealType != listing.DealType {
		return nil, ErrListingUnavailable
	}

	active, err := unit.Bookings().ActiveForUser(ctx, cmd.UserID, listing.ID)
	if err != nil {
		return nil, err
	}
	for _, existing := range active {
		if existing.EffectiveStatus(now).Active() {
			return nil, domainbooking.ErrDuplicateBooking
		}
	}

	var term domainbooking.Term
	if dealType == domainlistings.DealRent {
		term, err = domainbooking.NewTerm(cmd.StartDate, cmd.EndDate)
		if err != nil {
			return nil, domainbooking.ErrInvalidDuration
		}
	}

	created, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(cmd.CommandID),
		ListingID:  listing.ID,
		UserID:     cmd.UserID,
		DealType:   dealType,
		Term:       term,
		Total:      domainbooking.QuoteTotal(listing, term),
		PendingTTL: h.pendingTTL(),
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, created); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &created.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}

	return &RequestBookingResult{
		BookingID:    string(created.ID),
		DurationDays: created.DurationDays,
		TotalAmount:  created.Total.Amount,
		Currency:     created.Total.Currency,
		ExpiresAt:    created.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (h *RequestBookingHandler) pendingTTL() time.Duration {
	if h.PendingTTL > 0 {
		return h.PendingTTL
	}
	return DefaultPendingTTL
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// beginUnit reuses the pipeline-provided unit of work or opens a managed one.
// commit is a no-op for pipeline-owned units; rollback is always safe to defer.
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

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = RequestBookingCommand{}
