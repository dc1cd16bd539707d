package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"basobas/internal/app/commands"
	"basobas/internal/app/dto"
	handlersupport "basobas/internal/app/handlers/support"
	"basobas/internal/app/outbox"
	"basobas/internal/app/queries"
	"basobas/internal/app/uow"
	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
	domainreviews "basobas/internal/domain/reviews"
)

const (
	submitReviewKey = "review.submit"
	listReviewsKey  = "review.list"
)

var (
	ErrUnitOfWorkRequired = errors.New("reviews: unit of work required")
	// ErrNotReviewable rejects reviews from users without a confirmed booking
	// on the listing.
	ErrNotReviewable = errors.New("reviews: booking does not entitle the user to review")
)

type SubmitReviewCommand struct {
	CommandID string
	BookingID string
	AuthorID  string
	Rating    int
	Text      string
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

type SubmitReviewResult struct {
	ReviewID string `json:"review_id"`
}

// SubmitReviewHandler creates or updates the author's review for a booking.
// Only the booking's user may review, and only once the booking was confirmed.
type SubmitReviewHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (*SubmitReviewResult, error) {
	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	bk, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if bk.UserID != cmd.AuthorID {
		return nil, domainbooking.ErrOwnershipConflict
	}
	if bk.Status != domainbooking.StatusConfirmed && bk.Status != domainbooking.StatusCancelled {
		return nil, ErrNotReviewable
	}

	now := h.now()
	existing, err := unit.Reviews().ByBooking(ctx, bk.ID, cmd.AuthorID)
	switch {
	case err == nil:
		if err := existing.Update(cmd.Rating, cmd.Text, now); err != nil {
			return nil, err
		}
		if err := unit.Reviews().Save(ctx, existing); err != nil {
			return nil, err
		}
		if err := commit(); err != nil {
			return nil, err
		}
		return &SubmitReviewResult{ReviewID: string(existing.ID)}, nil
	case errors.Is(err, domainreviews.ErrNotFound):
	default:
		return nil, err
	}

	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:        domainreviews.ReviewID(cmd.CommandID),
		BookingID: bk.ID,
		AuthorID:  cmd.AuthorID,
		ListingID: bk.ListingID,
		Rating:    cmd.Rating,
		Text:      cmd.Text,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &review.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("review submitted", "review_id", review.ID, "listing_id", review.ListingID, "rating", review.Rating)
	}
	return &SubmitReviewResult{ReviewID: string(review.ID)}, nil
}

func (h *SubmitReviewHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

type ListReviewsQuery struct {
	ListingID string
	Limit     int
	Offset    int
}

func (q ListReviewsQuery) Key() string { return listReviewsKey }

type ListReviewsHandler struct {
	UoWFactory uow.Factory
	Logger     *slog.Logger
}

func (h *ListReviewsHandler) Handle(ctx context.Context, q ListReviewsQuery) (dto.ReviewCollection, error) {
	id := strings.TrimSpace(q.ListingID)
	if id == "" {
		return dto.ReviewCollection{}, errors.New("listing id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Reviews().ListByListing(execCtx, domainlistings.ListingID(id), q.Limit, q.Offset)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	out := make([]dto.ReviewView, 0, len(items))
	for _, r := range items {
		out = append(out, dto.MapReviewView(r))
	}
	return dto.ReviewCollection{Items: out}, nil
}

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

var _ commands.Handler[SubmitReviewCommand, *SubmitReviewResult] = (*SubmitReviewHandler)(nil)
var _ queries.Handler[ListReviewsQuery, dto.ReviewCollection] = (*ListReviewsHandler)(nil)
