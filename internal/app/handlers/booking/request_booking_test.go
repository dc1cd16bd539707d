package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "basobas/internal/app/outbox"
	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
	"basobas/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type engineFixture struct {
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	reviews  *memory.ReviewsRepository
	factory  memory.Factory
	outbox   *memory.Outbox
}

func newEngineFixture() *engineFixture {
	listingsRepo := memory.NewListingRepository()
	bookingRepo := memory.NewBookingRepository()
	reviewsRepo := memory.NewReviewsRepository()
	return &engineFixture{
		listings: listingsRepo,
		bookings: bookingRepo,
		reviews:  reviewsRepo,
		factory: memory.Factory{
			ListingsRepo: listingsRepo,
			BookingRepo:  bookingRepo,
			ReviewsRepo:  reviewsRepo,
		},
		outbox: memory.NewOutbox(),
	}
}

func (f *engineFixture) seedListing(t *testing.T, id string, dealType domainlistings.DealType, price int64) *domainlistings.Listing {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:       domainlistings.ListingID(id),
		Owner:    "owner-1",
		Title:    "Flat in Baneshwor",
		DealType: dealType,
		Price:    money.NPR(price),
		Address:  domainlistings.Address{Line1: "Mid Baneshwor", City: "Kathmandu", Country: "Nepal"},
		Now:      testNow.Add(-24 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, listing.Publish(testNow.Add(-24*time.Hour)))
	listing.ClearEvents()
	require.NoError(t, f.listings.Save(context.Background(), listing))
	return listing
}

func (f *engineFixture) requestHandler() *RequestBookingHandler {
	return &RequestBookingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
}

func rentDates(days int) (time.Time, time.Time) {
	start := testNow.Add(8 * 24 * time.Hour)
	return start, start.Add(time.Duration(days) * 24 * time.Hour)
}

func TestRequestBookingQuotesRentTotal(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	start, end := rentDates(35)

	result, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)

	assert.Equal(t, "bk-1", result.BookingID)
	assert.Equal(t, 35, result.DurationDays)
	assert.Equal(t, int64(35000), result.TotalAmount)
	assert.Equal(t, money.DefaultCurrency, result.Currency)
	assert.Equal(t, testNow.Add(DefaultPendingTTL).Format(time.RFC3339), result.ExpiresAt)

	stored, err := f.bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)
}

func TestRequestBookingSaleUsesFlatPrice(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealSale, 9_000_000_00)

	result, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "sale",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9_000_000_00), result.TotalAmount)
	assert.Zero(t, result.DurationDays)
}

func TestRequestBookingOwnListingRejected(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	start, end := rentDates(35)

	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "owner-1",
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	assert.ErrorIs(t, err, domainbooking.ErrOwnershipConflict)
}

func TestRequestBookingInactiveListingRejected(t *testing.T) {
	f := newEngineFixture()
	listing := f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	require.NoError(t, listing.Deactivate(testNow))
	require.NoError(t, f.listings.Save(context.Background(), listing))
	start, end := rentDates(35)

	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	assert.ErrorIs(t, err, ErrListingUnavailable)
}

func TestRequestBookingDealTypeMismatch(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)

	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "sale",
	})
	assert.ErrorIs(t, err, ErrListingUnavailable)
}

func TestRequestBookingDuplicateActiveRejected(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	start, end := rentDates(35)
	handler := f.requestHandler()

	_, err := handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-2",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	assert.ErrorIs(t, err, domainbooking.ErrDuplicateBooking)
}

func TestRequestBookingAllowedAfterCancellation(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	start, end := rentDates(35)
	handler := f.requestHandler()

	_, err := handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)

	first, err := f.bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	_, err = first.Cancel(domainbooking.PartyUser, testNow.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.bookings.Save(context.Background(), first))

	_, err = handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-2",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
}

func TestRequestBookingShortTermRejected(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	start, end := rentDates(10)

	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidDuration)
}

func TestRequestBookingStagesOutboxEvent(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	start, end := rentDates(35)

	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)

	staged := f.outbox.Staged()
	require.Len(t, staged, 1)
	assert.Equal(t, "booking.requested", staged[0].Name)
	assert.Equal(t, "bk-1", staged[0].Aggregate)
	assert.NotEmpty(t, staged[0].ID)
}
