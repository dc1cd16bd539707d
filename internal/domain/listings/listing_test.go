package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basobas/internal/domain/shared/money"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestListing(t *testing.T, dealType DealType) *Listing {
	t.Helper()
	l, err := NewListing(CreateParams{
		ID:       "ls-1",
		Owner:    "owner-1",
		Title:    "Two bedroom flat in Patan",
		DealType: dealType,
		Price:    money.NPR(30000),
		Address:  Address{Line1: "Pulchowk Road", City: "Lalitpur", Country: "Nepal"},
		Bedrooms: 2,
		Now:      now,
	})
	require.NoError(t, err)
	return l
}

func TestNewListingStartsPending(t *testing.T) {
	l := newTestListing(t, DealRent)
	assert.Equal(t, StatusPending, l.Status)
	assert.False(t, l.Removed)
}

func TestPublishRequiresAddress(t *testing.T) {
	l := newTestListing(t, DealRent)
	l.Address = Address{}
	assert.ErrorIs(t, l.Publish(now), ErrAddressRequired)
}

func TestPublishAndDeactivate(t *testing.T) {
	l := newTestListing(t, DealRent)
	require.NoError(t, l.Publish(now))
	assert.Equal(t, StatusActive, l.Status)

	// publish is idempotent on an active listing
	require.NoError(t, l.Publish(now.Add(time.Hour)))

	require.NoError(t, l.Deactivate(now.Add(2*time.Hour)))
	assert.Equal(t, StatusInactive, l.Status)

	require.NoError(t, l.Publish(now.Add(3*time.Hour)))
	assert.Equal(t, StatusActive, l.Status)
}

func TestMarkBookedByDealType(t *testing.T) {
	rent := newTestListing(t, DealRent)
	require.NoError(t, rent.Publish(now))
	require.NoError(t, rent.MarkBooked(now.Add(time.Hour)))
	assert.Equal(t, StatusRented, rent.Status)

	sale := newTestListing(t, DealSale)
	require.NoError(t, sale.Publish(now))
	require.NoError(t, sale.MarkBooked(now.Add(time.Hour)))
	assert.Equal(t, StatusSold, sale.Status)
}

func TestMarkBookedRequiresActive(t *testing.T) {
	l := newTestListing(t, DealRent)
	assert.ErrorIs(t, l.MarkBooked(now), ErrInvalidState)
}

func TestReleaseRevertsToActive(t *testing.T) {
	l := newTestListing(t, DealRent)
	require.NoError(t, l.Publish(now))
	require.NoError(t, l.MarkBooked(now.Add(time.Hour)))

	require.NoError(t, l.Release(now.Add(2*time.Hour)))
	assert.Equal(t, StatusActive, l.Status)
}

func TestReleaseKeepsStatusWhenLocked(t *testing.T) {
	l := newTestListing(t, DealSale)
	require.NoError(t, l.Publish(now))
	require.NoError(t, l.MarkBooked(now.Add(time.Hour)))
	l.Lock(now.Add(2 * time.Hour))

	require.NoError(t, l.Release(now.Add(3*time.Hour)))
	assert.Equal(t, StatusSold, l.Status)

	l.Unlock(now.Add(4 * time.Hour))
	require.NoError(t, l.Release(now.Add(5*time.Hour)))
	assert.Equal(t, StatusActive, l.Status)
}

func TestLockedListingRejectsPublishChanges(t *testing.T) {
	l := newTestListing(t, DealRent)
	require.NoError(t, l.Publish(now))
	l.Lock(now.Add(time.Hour))

	assert.ErrorIs(t, l.Deactivate(now.Add(2*time.Hour)), ErrAdminLocked)
}

func TestRemoveIsTerminal(t *testing.T) {
	l := newTestListing(t, DealRent)
	require.NoError(t, l.Publish(now))
	require.NoError(t, l.Remove(now.Add(time.Hour)))
	assert.True(t, l.Removed)
	assert.Equal(t, StatusInactive, l.Status)

	assert.ErrorIs(t, l.Remove(now.Add(2*time.Hour)), ErrInvalidState)
}

func TestUpdateDetailsValidates(t *testing.T) {
	l := newTestListing(t, DealRent)
	assert.ErrorIs(t, l.UpdateDetails("", "desc", money.NPR(40000), now), ErrTitleRequired)
	assert.ErrorIs(t, l.UpdateDetails("New title", "desc", money.NPR(0), now), ErrPriceInvalid)

	require.NoError(t, l.UpdateDetails("New title", "desc", money.NPR(40000), now.Add(time.Hour)))
	assert.Equal(t, int64(40000), l.Price.Amount)
}

func TestParseDealType(t *testing.T) {
	dt, err := ParseDealType(" Rent ")
	require.NoError(t, err)
	assert.Equal(t, DealRent, dt)

	_, err = ParseDealType("lease")
	assert.ErrorIs(t, err, ErrInvalidDealType)
}
