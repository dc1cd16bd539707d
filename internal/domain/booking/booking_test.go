package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func rentTerm(t *testing.T, days int) Term {
	t.Helper()
	start := baseTime.Add(8 * 24 * time.Hour)
	term, err := NewTerm(start, start.Add(time.Duration(days)*24*time.Hour))
	require.NoError(t, err)
	return term
}

func pendingRentBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(CreateParams{
		ID:         "bk-1",
		ListingID:  "ls-1",
		UserID:     "user-1",
		DealType:   listings.DealRent,
		Term:       rentTerm(t, 35),
		Total:      money.NPR(35000),
		PendingTTL: 48 * time.Hour,
		Now:        baseTime,
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingStartsPending(t *testing.T) {
	b := pendingRentBooking(t)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, PaymentPending, b.PaymentStatus)
	assert.Equal(t, 35, b.DurationDays)
	assert.Equal(t, baseTime.Add(48*time.Hour), b.ExpiresAt)
	require.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, "booking.requested", b.PendingEvents()[0].EventName())
}

func TestNewBookingRejectsShortTerm(t *testing.T) {
	_, err := NewBooking(CreateParams{
		ID:         "bk-2",
		ListingID:  "ls-1",
		UserID:     "user-1",
		DealType:   listings.DealRent,
		Term:       rentTerm(t, 14),
		Total:      money.NPR(30000),
		PendingTTL: 48 * time.Hour,
		Now:        baseTime,
	})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestNewBookingRejectsShortLeadTime(t *testing.T) {
	start := baseTime.Add(2 * 24 * time.Hour)
	term, err := NewTerm(start, start.Add(40*24*time.Hour))
	require.NoError(t, err)

	_, err = NewBooking(CreateParams{
		ID:         "bk-3",
		ListingID:  "ls-1",
		UserID:     "user-1",
		DealType:   listings.DealRent,
		Term:       term,
		Total:      money.NPR(40000),
		PendingTTL: 48 * time.Hour,
		Now:        baseTime,
	})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestSaleBookingSkipsTermValidation(t *testing.T) {
	b, err := NewBooking(CreateParams{
		ID:         "bk-4",
		ListingID:  "ls-1",
		UserID:     "user-1",
		DealType:   listings.DealSale,
		Total:      money.NPR(5_000_000_00),
		PendingTTL: 48 * time.Hour,
		Now:        baseTime,
	})
	require.NoError(t, err)
	assert.Zero(t, b.DurationDays)
	assert.True(t, b.Term.IsZero())
}

func TestConfirmRequiresOwner(t *testing.T) {
	b := pendingRentBooking(t)
	err := b.Confirm(PartyUser, baseTime.Add(time.Hour))
	assert.ErrorIs(t, err, ErrOwnershipConflict)
	assert.Equal(t, StatusPending, b.Status)
}

func TestConfirmPendingByOwner(t *testing.T) {
	b := pendingRentBooking(t)
	require.NoError(t, b.Confirm(PartyOwner, baseTime.Add(time.Hour)))
	assert.Equal(t, StatusConfirmed, b.Status)
}

func TestConfirmAfterDeadlineFails(t *testing.T) {
	b := pendingRentBooking(t)
	err := b.Confirm(PartyOwner, b.ExpiresAt)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmTwiceFails(t *testing.T) {
	b := pendingRentBooking(t)
	require.NoError(t, b.Confirm(PartyOwner, baseTime.Add(time.Hour)))
	err := b.Confirm(PartyOwner, baseTime.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUserCancelsPending(t *testing.T) {
	b := pendingRentBooking(t)
	wasConfirmed, err := b.Cancel(PartyUser, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, wasConfirmed)
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestUserCannotCancelConfirmed(t *testing.T) {
	b := pendingRentBooking(t)
	require.NoError(t, b.Confirm(PartyOwner, baseTime.Add(time.Hour)))

	_, err := b.Cancel(PartyUser, baseTime.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrOwnershipConflict)
	assert.Equal(t, StatusConfirmed, b.Status)
}

func TestOwnerCancelsConfirmed(t *testing.T) {
	b := pendingRentBooking(t)
	require.NoError(t, b.Confirm(PartyOwner, baseTime.Add(time.Hour)))

	wasConfirmed, err := b.Cancel(PartyOwner, baseTime.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, wasConfirmed)
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestReCancelFails(t *testing.T) {
	b := pendingRentBooking(t)
	_, err := b.Cancel(PartyUser, baseTime.Add(time.Hour))
	require.NoError(t, err)

	_, err = b.Cancel(PartyUser, baseTime.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkExpired(t *testing.T) {
	b := pendingRentBooking(t)

	assert.ErrorIs(t, b.MarkExpired(baseTime.Add(time.Hour)), ErrInvalidTransition)

	require.NoError(t, b.MarkExpired(b.ExpiresAt))
	assert.Equal(t, StatusExpired, b.Status)
}

func TestMarkPropertyDeletedOnlyActive(t *testing.T) {
	b := pendingRentBooking(t)
	require.NoError(t, b.MarkPropertyDeleted(baseTime.Add(time.Hour)))
	assert.Equal(t, StatusPropertyDeleted, b.Status)

	cancelled := pendingRentBooking(t)
	_, err := cancelled.Cancel(PartyUser, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.ErrorIs(t, cancelled.MarkPropertyDeleted(baseTime.Add(2*time.Hour)), ErrInvalidTransition)
}

func TestEffectiveStatusDerivesExpiry(t *testing.T) {
	b := pendingRentBooking(t)

	assert.Equal(t, StatusPending, b.EffectiveStatus(b.ExpiresAt.Add(-time.Minute)))
	assert.Equal(t, StatusExpired, b.EffectiveStatus(b.ExpiresAt))
	assert.Equal(t, StatusPending, b.Status)
}

func TestRecordPayment(t *testing.T) {
	b := pendingRentBooking(t)

	err := b.RecordPayment(PaymentPaid, "ref-1", baseTime.Add(time.Hour))
	assert.ErrorIs(t, err, ErrPaymentState)

	require.NoError(t, b.Confirm(PartyOwner, baseTime.Add(time.Hour)))
	require.NoError(t, b.RecordPayment(PaymentPaid, "ref-1", baseTime.Add(2*time.Hour)))
	assert.Equal(t, PaymentPaid, b.PaymentStatus)
	assert.Equal(t, "ref-1", b.PaymentRef)

	err = b.RecordPayment(PaymentFailed, "ref-2", baseTime.Add(3*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
