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
)

func (f *engineFixture) decideHandler(now func() time.Time) *DecideBookingHandler {
	return &DecideBookingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        now,
	}
}

func (f *engineFixture) seedPendingBooking(t *testing.T, id, listingID, userID string) {
	t.Helper()
	start, end := rentDates(35)
	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: id,
		ListingID: listingID,
		UserID:    userID,
		DealType:  "rent",
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
}

func TestConfirmMarksListingRented(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")

	result, err := f.decideHandler(fixedNow).Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1",
		ActorID:   "owner-1",
		Action:    ActionConfirm,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusConfirmed), result.BookingStatus)
	assert.Equal(t, string(domainlistings.StatusRented), result.ListingStatus)

	listing, err := f.listings.ByID(context.Background(), "ls-1")
	require.NoError(t, err)
	assert.Equal(t, domainlistings.StatusRented, listing.Status)
}

func TestConfirmSaleMarksListingSold(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealSale, 9_000_000_00)
	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "ls-1",
		UserID:    "user-1",
		DealType:  "sale",
	})
	require.NoError(t, err)

	result, err := f.decideHandler(fixedNow).Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1",
		ActorID:   "owner-1",
		Action:    ActionConfirm,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainlistings.StatusSold), result.ListingStatus)
}

func TestConfirmByStrangerRejected(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")

	_, err := f.decideHandler(fixedNow).Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1",
		ActorID:   "someone-else",
		Action:    ActionConfirm,
	})
	assert.ErrorIs(t, err, domainbooking.ErrOwnershipConflict)
}

func TestConfirmByRequesterRejected(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")

	_, err := f.decideHandler(fixedNow).Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1",
		ActorID:   "user-1",
		Action:    ActionConfirm,
	})
	assert.ErrorIs(t, err, domainbooking.ErrOwnershipConflict)
}

func TestConfirmAfterDeadlineRejected(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")

	late := func() time.Time { return testNow.Add(DefaultPendingTTL + time.Minute) }
	_, err := f.decideHandler(late).Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1",
		ActorID:   "owner-1",
		Action:    ActionConfirm,
	})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)
}

func TestUserCancelsPendingBooking(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")

	result, err := f.decideHandler(fixedNow).Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1",
		ActorID:   "user-1",
		Action:    ActionCancel,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusCancelled), result.BookingStatus)
	// pending cancel never touches the listing
	assert.Equal(t, string(domainlistings.StatusActive), result.ListingStatus)
}

func TestOwnerCancelConfirmedReleasesListing(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")
	handler := f.decideHandler(fixedNow)

	_, err := handler.Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1", ActorID: "owner-1", Action: ActionConfirm,
	})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1", ActorID: "owner-1", Action: ActionCancel,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusCancelled), result.BookingStatus)
	assert.Equal(t, string(domainlistings.StatusActive), result.ListingStatus)
}

func TestUserCannotCancelConfirmedBooking(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")
	handler := f.decideHandler(fixedNow)

	_, err := handler.Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1", ActorID: "owner-1", Action: ActionConfirm,
	})
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1", ActorID: "user-1", Action: ActionCancel,
	})
	assert.ErrorIs(t, err, domainbooking.ErrOwnershipConflict)
}

func TestUnknownActionRejected(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")

	_, err := f.decideHandler(fixedNow).Handle(context.Background(), DecideBookingCommand{
		BookingID: "bk-1",
		ActorID:   "owner-1",
		Action:    "approve",
	})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestDecideUnknownBooking(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)

	_, err := f.decideHandler(fixedNow).Handle(context.Background(), DecideBookingCommand{
		BookingID: "missing",
		ActorID:   "owner-1",
		Action:    ActionConfirm,
	})
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}
