package listings

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

type fixture struct {
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	factory  memory.Factory
	outbox   *memory.Outbox
}

func newFixture() *fixture {
	listingsRepo := memory.NewListingRepository()
	bookingRepo := memory.NewBookingRepository()
	return &fixture{
		listings: listingsRepo,
		bookings: bookingRepo,
		factory: memory.Factory{
			ListingsRepo: listingsRepo,
			BookingRepo:  bookingRepo,
			ReviewsRepo:  memory.NewReviewsRepository(),
		},
		outbox: memory.NewOutbox(),
	}
}

func (f *fixture) createListing(t *testing.T, id string) {
	t.Helper()
	handler := &CreateListingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
	_, err := handler.Handle(context.Background(), CreateListingCommand{
		CommandID:   id,
		OwnerID:     "owner-1",
		Title:       "House in Bhaktapur",
		DealType:    "rent",
		PriceAmount: 30000,
		Line1:       "Durbar Square Road",
		City:        "Bhaktapur",
		Country:     "Nepal",
	})
	require.NoError(t, err)
}

func (f *fixture) publishListing(t *testing.T, id string) {
	t.Helper()
	handler := &PublishListingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
	_, err := handler.Handle(context.Background(), PublishListingCommand{
		ListingID: id, OwnerID: "owner-1", Publish: true,
	})
	require.NoError(t, err)
}

func (f *fixture) seedPendingBooking(t *testing.T, bookingID, listingID, userID string) {
	t.Helper()
	bk, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(bookingID),
		ListingID:  domainlistings.ListingID(listingID),
		UserID:     userID,
		DealType:   domainlistings.DealSale,
		Total:      money.NPR(5_000_000_00),
		PendingTTL: 48 * time.Hour,
		Now:        testNow,
	})
	require.NoError(t, err)
	bk.ClearEvents()
	require.NoError(t, f.bookings.Save(context.Background(), bk))
}

func TestCreateListingStartsPending(t *testing.T) {
	f := newFixture()
	f.createListing(t, "ls-1")

	stored, err := f.listings.ByID(context.Background(), "ls-1")
	require.NoError(t, err)
	assert.Equal(t, domainlistings.StatusPending, stored.Status)
	assert.Equal(t, domainlistings.OwnerID("owner-1"), stored.Owner)
}

func TestPublishRejectedForNonOwner(t *testing.T) {
	f := newFixture()
	f.createListing(t, "ls-1")

	handler := &PublishListingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
	_, err := handler.Handle(context.Background(), PublishListingCommand{
		ListingID: "ls-1", OwnerID: "intruder", Publish: true,
	})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestUnpublishDeactivates(t *testing.T) {
	f := newFixture()
	f.createListing(t, "ls-1")
	f.publishListing(t, "ls-1")

	handler := &PublishListingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
	result, err := handler.Handle(context.Background(), PublishListingCommand{
		ListingID: "ls-1", OwnerID: "owner-1", Publish: false,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainlistings.StatusInactive), result.Status)
}

func TestRemoveListingOrphansActiveBookings(t *testing.T) {
	f := newFixture()
	f.createListing(t, "ls-1")
	f.publishListing(t, "ls-1")
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")
	f.seedPendingBooking(t, "bk-2", "ls-1", "user-2")

	cancelled, err := f.bookings.ByID(context.Background(), "bk-2")
	require.NoError(t, err)
	_, err = cancelled.Cancel(domainbooking.PartyUser, testNow.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.bookings.Save(context.Background(), cancelled))

	handler := &RemoveListingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
	result, err := handler.Handle(context.Background(), RemoveListingCommand{
		ListingID: "ls-1",
		ActorID:   "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.OrphanedBookings)

	orphaned, err := f.bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPropertyDeleted, orphaned.Status)

	kept, err := f.bookings.ByID(context.Background(), "bk-2")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, kept.Status)

	removed, err := f.listings.ByID(context.Background(), "ls-1")
	require.NoError(t, err)
	assert.True(t, removed.Removed)
}

func TestRemoveListingByAdminSkipsOwnershipCheck(t *testing.T) {
	f := newFixture()
	f.createListing(t, "ls-1")

	handler := &RemoveListingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}

	_, err := handler.Handle(context.Background(), RemoveListingCommand{
		ListingID: "ls-1", ActorID: "moderator",
	})
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = handler.Handle(context.Background(), RemoveListingCommand{
		ListingID: "ls-1", ActorID: "moderator", AsAdmin: true,
	})
	require.NoError(t, err)
}

func TestSetLockFreezesListing(t *testing.T) {
	f := newFixture()
	f.createListing(t, "ls-1")
	f.publishListing(t, "ls-1")

	lock := &SetLockHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
	_, err := lock.Handle(context.Background(), SetLockCommand{ListingID: "ls-1", Locked: true})
	require.NoError(t, err)

	publish := &PublishListingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
	_, err = publish.Handle(context.Background(), PublishListingCommand{
		ListingID: "ls-1", OwnerID: "owner-1", Publish: false,
	})
	assert.ErrorIs(t, err, domainlistings.ErrAdminLocked)

	_, err = lock.Handle(context.Background(), SetLockCommand{ListingID: "ls-1", Locked: false})
	require.NoError(t, err)
	_, err = publish.Handle(context.Background(), PublishListingCommand{
		ListingID: "ls-1", OwnerID: "owner-1", Publish: false,
	})
	require.NoError(t, err)
}

func TestAttachPhotoAppendsURL(t *testing.T) {
	f := newFixture()
	f.createListing(t, "ls-1")

	handler := &AttachPhotoHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
	_, err := handler.Handle(context.Background(), AttachPhotoCommand{
		ListingID: "ls-1",
		OwnerID:   "owner-1",
		PhotoURL:  "https://cdn.example.com/ls-1/front.jpg",
	})
	require.NoError(t, err)

	stored, err := f.listings.ByID(context.Background(), "ls-1")
	require.NoError(t, err)
	require.Len(t, stored.Photos, 1)
	assert.Equal(t, "https://cdn.example.com/ls-1/front.jpg", stored.Photos[0])
}
