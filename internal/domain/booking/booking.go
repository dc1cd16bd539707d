package booking

import (
	"context"
	"errors"
	"time"

	"basobas/internal/domain/listings"
	"basobas/internal/domain/shared/events"
	"basobas/internal/domain/shared/money"
)

var (
	ErrOwnershipConflict = errors.New("booking: acting user lacks rights on this booking")
	ErrDuplicateBooking  = errors.New("booking: user already holds an active booking for this listing")
	ErrInvalidTransition = errors.New("booking: invalid state transition")
	ErrNotFound          = errors.New("booking: not found")
	ErrConflict          = errors.New("booking: concurrent update detected")
	ErrPaymentState      = errors.New("booking: payment can only settle a confirmed booking")
)

type BookingID string

// Status is the booking lifecycle state. All transitions go through the
// aggregate methods below; nothing else compares or assigns these values.
type Status string

const (
	StatusPending         Status = "pending"
	StatusConfirmed       Status = "confirmed"
	StatusCancelled       Status = "cancelled"
	StatusExpired         Status = "expired"
	StatusPropertyDeleted Status = "property_deleted"
)

// Active reports whether the status still blocks a new booking on the same
// listing by the same user.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Party identifies who is acting on a booking.
type Party string

const (
	PartyUser  Party = "user"
	PartyOwner Party = "owner"
)

type Booking struct {
	ID            BookingID
	ListingID     listings.ListingID
	UserID        string
	DealType      listings.DealType
	Term          Term
	DurationDays  int
	Total         money.Money
	Status        Status
	ExpiresAt     time.Time
	PaymentStatus PaymentStatus
	PaymentRef    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Save persists the aggregate conditionally on its Version and returns
	// ErrConflict when another writer got there first.
	Save(ctx context.Context, booking *Booking) error
	ListByUser(ctx context.Context, userID string) ([]*Booking, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
	// ActiveForUser returns the user's pending/confirmed bookings on a listing.
	ActiveForUser(ctx context.Context, userID string, listingID listings.ListingID) ([]*Booking, error)
	// ListExpiredPending returns pending bookings whose expiry deadline has
	// passed at the given instant.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*Booking, error)
}

type CreateParams struct {
	ID         BookingID
	ListingID  listings.ListingID
	UserID     string
	DealType   listings.DealType
	Term       Term
	Total      money.Money
	PendingTTL time.Duration
	Now        time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.UserID == "" {
		return nil, errors.New("booking: user id required")
	}
	if params.Total.Amount <= 0 {
		return nil, errors.New("booking: total must be positive")
	}
	if params.PendingTTL <= 0 {
		return nil, errors.New("booking: pending ttl must be positive")
	}
	now := params.Now.UTC()
	durationDays := 0
	if params.DealType == listings.DealRent {
		if err := params.Term.Validate(now); err != nil {
			return nil, err
		}
		durationDays = params.Term.DurationDays()
	}
	b := &Booking{
		ID:            params.ID,
		ListingID:     params.ListingID,
		UserID:        params.UserID,
		DealType:      params.DealType,
		Term:          params.Term,
		DurationDays:  durationDays,
		Total:         params.Total,
		Status:        StatusPending,
		ExpiresAt:     now.Add(params.PendingTTL),
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, UserID: b.UserID, DealType: b.DealType, Total: b.Total, ExpiresAt: b.ExpiresAt, At: now})
	return b, nil
}

// Confirm accepts a pending booking. Only the listing owner confirms; the
// caller resolves ownership and passes PartyOwner. A pending booking past its
// expiry deadline can no longer be confirmed even if the expiry write has not
// landed yet.
func (b *Booking) Confirm(party Party, now time.Time) error {
	if party != PartyOwner {
		return ErrOwnershipConflict
	}
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	if !now.Before(b.ExpiresAt) {
		return ErrInvalidTransition
	}
	b.setStatus(StatusConfirmed, now)
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, UserID: b.UserID, Total: b.Total, At: b.UpdatedAt})
	return nil
}

// Cancel moves the booking to cancelled. The requesting user may cancel while
// still pending; the owner may cancel pending or confirmed bookings.
// Re-cancelling is an ErrInvalidTransition, deliberately not a no-op, so
// double submissions surface to the caller.
func (b *Booking) Cancel(party Party, now time.Time) (wasConfirmed bool, err error) {
	switch b.Status {
	case StatusPending:
	case StatusConfirmed:
		if party != PartyOwner {
			return false, ErrOwnershipConflict
		}
		wasConfirmed = true
	default:
		return false, ErrInvalidTransition
	}
	b.setStatus(StatusCancelled, now)
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, UserID: b.UserID, By: party, WasConfirmed: wasConfirmed, At: b.UpdatedAt})
	return wasConfirmed, nil
}

// MarkExpired persists the pending→expired transition. Used by the sweeper.
func (b *Booking) MarkExpired(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	if now.Before(b.ExpiresAt) {
		return ErrInvalidTransition
	}
	b.setStatus(StatusExpired, now)
	b.Record(BookingExpired{BookingID: b.ID, ListingID: b.ListingID, UserID: b.UserID, At: b.UpdatedAt})
	return nil
}

// MarkPropertyDeleted orphans the booking after its listing was removed.
func (b *Booking) MarkPropertyDeleted(now time.Time) error {
	if !b.Status.Active() {
		return ErrInvalidTransition
	}
	b.setStatus(StatusPropertyDeleted, now)
	b.Record(BookingOrphaned{BookingID: b.ID, ListingID: b.ListingID, UserID: b.UserID, At: b.UpdatedAt})
	return nil
}

// RecordPayment settles the payment outcome reported by a gateway callback.
func (b *Booking) RecordPayment(outcome PaymentStatus, ref string, now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrPaymentState
	}
	if outcome != PaymentPaid && outcome != PaymentFailed {
		return ErrPaymentState
	}
	if b.PaymentStatus == PaymentPaid {
		return ErrInvalidTransition
	}
	b.PaymentStatus = outcome
	b.PaymentRef = ref
	b.UpdatedAt = now.UTC()
	b.Record(PaymentRecorded{BookingID: b.ID, UserID: b.UserID, Outcome: outcome, Ref: ref, At: b.UpdatedAt})
	return nil
}

// EffectiveStatus derives the read-time status: a pending booking past its
// deadline presents as expired even before the sweeper has persisted it.
func (b *Booking) EffectiveStatus(now time.Time) Status {
	if b.Status == StatusPending && !now.Before(b.ExpiresAt) {
		return StatusExpired
	}
	return b.Status
}

func (b *Booking) setStatus(next Status, now time.Time) {
	b.Status = next
	b.UpdatedAt = now.UTC()
}
