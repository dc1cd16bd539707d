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

func TestExpirePendingPersistsOverdueBookings(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedListing(t, "ls-2", domainlistings.DealRent, 30000)
	f.seedListing(t, "ls-3", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")
	f.seedPendingBooking(t, "bk-2", "ls-2", "user-2")
	f.seedPendingBooking(t, "bk-3", "ls-3", "user-3")

	handler := &ExpirePendingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        func() time.Time { return testNow.Add(DefaultPendingTTL + time.Minute) },
	}

	result, err := handler.Handle(context.Background(), ExpirePendingCommand{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Expired)

	for _, id := range []string{"bk-1", "bk-2", "bk-3"} {
		stored, err := f.bookings.ByID(context.Background(), domainbooking.BookingID(id))
		require.NoError(t, err)
		assert.Equal(t, domainbooking.StatusExpired, stored.Status)
	}
}

func TestExpirePendingSkipsFreshBookings(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")

	handler := &ExpirePendingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        func() time.Time { return testNow.Add(time.Hour) },
	}

	result, err := handler.Handle(context.Background(), ExpirePendingCommand{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, result.Expired)

	stored, err := f.bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)
}

func TestExpirePendingHonorsBatchLimit(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedListing(t, "ls-2", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")
	f.seedPendingBooking(t, "bk-2", "ls-2", "user-2")

	handler := &ExpirePendingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        func() time.Time { return testNow.Add(DefaultPendingTTL + time.Minute) },
	}

	result, err := handler.Handle(context.Background(), ExpirePendingCommand{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)
}

func TestExpirePendingStagesExpiryEvents(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")
	f.outbox.Flush(context.Background())

	handler := &ExpirePendingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        func() time.Time { return testNow.Add(DefaultPendingTTL + time.Minute) },
	}
	_, err := handler.Handle(context.Background(), ExpirePendingCommand{})
	require.NoError(t, err)

	staged := f.outbox.Staged()
	require.Len(t, staged, 1)
	assert.Equal(t, "booking.expired", staged[0].Name)
}
