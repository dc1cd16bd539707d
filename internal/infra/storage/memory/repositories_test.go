package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedBooking(t *testing.T, repo *BookingRepository, id string) {
	t.Helper()
	bk, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(id),
		ListingID:  "ls-1",
		UserID:     "user-1",
		DealType:   domainlistings.DealSale,
		Total:      money.NPR(5_000_000_00),
		PendingTTL: 48 * time.Hour,
		Now:        testNow,
	})
	require.NoError(t, err)
	bk.ClearEvents()
	require.NoError(t, repo.Save(context.Background(), bk))
}

func TestBookingSaveRejectsStaleVersion(t *testing.T) {
	repo := NewBookingRepository()
	seedBooking(t, repo, "bk-1")

	first, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	second, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)

	require.NoError(t, first.Confirm(domainbooking.PartyOwner, testNow.Add(time.Hour)))
	require.NoError(t, repo.Save(context.Background(), first))

	require.NoError(t, second.Confirm(domainbooking.PartyOwner, testNow.Add(time.Hour)))
	err = repo.Save(context.Background(), second)
	assert.ErrorIs(t, err, domainbooking.ErrConflict)

	stored, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, stored.Status)
}

func TestBookingByIDReturnsCopies(t *testing.T) {
	repo := NewBookingRepository()
	seedBooking(t, repo, "bk-1")

	loaded, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	loaded.Status = domainbooking.StatusCancelled

	fresh, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, fresh.Status)
}

func TestListExpiredPending(t *testing.T) {
	repo := NewBookingRepository()
	seedBooking(t, repo, "bk-1")
	seedBooking(t, repo, "bk-2")

	overdue := testNow.Add(48*time.Hour + time.Minute)
	matches, err := repo.ListExpiredPending(context.Background(), overdue, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = repo.ListExpiredPending(context.Background(), overdue, 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = repo.ListExpiredPending(context.Background(), testNow.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestActiveForUserSkipsTerminalBookings(t *testing.T) {
	repo := NewBookingRepository()
	seedBooking(t, repo, "bk-1")

	active, err := repo.ActiveForUser(context.Background(), "user-1", "ls-1")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	bk, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	_, err = bk.Cancel(domainbooking.PartyUser, testNow.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), bk))

	active, err = repo.ActiveForUser(context.Background(), "user-1", "ls-1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func seedListing(t *testing.T, repo *ListingRepository, id string, price int64, city string, createdOffset time.Duration) {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:       domainlistings.ListingID(id),
		Owner:    "owner-1",
		Title:    "Listing " + id,
		DealType: domainlistings.DealRent,
		Price:    money.NPR(price),
		Address:  domainlistings.Address{Line1: "Main Road", City: city, Country: "Nepal"},
		Bedrooms: 2,
		Now:      testNow.Add(createdOffset),
	})
	require.NoError(t, err)
	require.NoError(t, listing.Publish(testNow.Add(createdOffset)))
	listing.ClearEvents()
	require.NoError(t, repo.Save(context.Background(), listing))
}

func TestListingSearchFiltersAndSorts(t *testing.T) {
	repo := NewListingRepository()
	seedListing(t, repo, "ls-1", 20000, "Kathmandu", 0)
	seedListing(t, repo, "ls-2", 40000, "Pokhara", time.Minute)
	seedListing(t, repo, "ls-3", 30000, "Kathmandu", 2*time.Minute)

	result, err := repo.Search(context.Background(), domainlistings.SearchParams{
		City: "kathmandu",
		Sort: domainlistings.SortByPriceAsc,
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, domainlistings.ListingID("ls-1"), result.Items[0].ID)
	assert.Equal(t, domainlistings.ListingID("ls-3"), result.Items[1].ID)

	result, err = repo.Search(context.Background(), domainlistings.SearchParams{
		PriceMin: 25000,
		PriceMax: 45000,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestListingSearchHidesRemoved(t *testing.T) {
	repo := NewListingRepository()
	seedListing(t, repo, "ls-1", 20000, "Kathmandu", 0)

	listing, err := repo.ByID(context.Background(), "ls-1")
	require.NoError(t, err)
	require.NoError(t, listing.Remove(testNow.Add(time.Hour)))
	require.NoError(t, repo.Save(context.Background(), listing))

	result, err := repo.Search(context.Background(), domainlistings.SearchParams{})
	require.NoError(t, err)
	assert.Zero(t, result.Total)
}

func TestListingSaveRejectsStaleVersion(t *testing.T) {
	repo := NewListingRepository()
	seedListing(t, repo, "ls-1", 20000, "Kathmandu", 0)

	first, err := repo.ByID(context.Background(), "ls-1")
	require.NoError(t, err)
	second, err := repo.ByID(context.Background(), "ls-1")
	require.NoError(t, err)

	require.NoError(t, first.MarkBooked(testNow.Add(time.Hour)))
	require.NoError(t, repo.Save(context.Background(), first))

	require.NoError(t, second.MarkBooked(testNow.Add(time.Hour)))
	assert.ErrorIs(t, repo.Save(context.Background(), second), domainbooking.ErrConflict)
}
