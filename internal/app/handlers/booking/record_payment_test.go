package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "basobas/internal/app/outbox"
	"basobas/internal/app/policies"
	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
)

type stubGateway struct {
	settled bool
	err     error
}

func (g stubGateway) Name() string { return "stub" }

func (g stubGateway) Verify(_ context.Context, ref string, amount money.Money) (policies.Verification, error) {
	if g.err != nil {
		return policies.Verification{}, g.err
	}
	return policies.Verification{Ref: ref, Amount: amount, Settled: g.settled}, nil
}

func (f *engineFixture) paymentHandler(gw policies.PaymentGateway) *RecordPaymentHandler {
	return &RecordPaymentHandler{
		UoWFactory: f.factory,
		Gateways:   map[string]policies.PaymentGateway{"stub": gw},
		Outbox:     f.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        fixedNow,
	}
}

func (f *engineFixture) seedConfirmedBooking(t *testing.T, id, listingID, userID string) {
	t.Helper()
	f.seedPendingBooking(t, id, listingID, userID)
	_, err := f.decideHandler(fixedNow).Handle(context.Background(), DecideBookingCommand{
		BookingID: id, ActorID: "owner-1", Action: ActionConfirm,
	})
	require.NoError(t, err)
}

func TestRecordPaymentSettled(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedConfirmedBooking(t, "bk-1", "ls-1", "user-1")

	result, err := f.paymentHandler(stubGateway{settled: true}).Handle(context.Background(), RecordPaymentCommand{
		BookingID: "bk-1",
		Gateway:   "stub",
		Ref:       "txn-100",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.PaymentPaid), result.PaymentStatus)

	stored, err := f.bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "txn-100", stored.PaymentRef)
}

func TestRecordPaymentVerificationFailureIsRecorded(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedConfirmedBooking(t, "bk-1", "ls-1", "user-1")

	result, err := f.paymentHandler(stubGateway{err: policies.ErrAmountMismatch}).Handle(context.Background(), RecordPaymentCommand{
		BookingID: "bk-1",
		Gateway:   "stub",
		Ref:       "txn-100",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.PaymentFailed), result.PaymentStatus)
}

func TestRecordPaymentUnknownGateway(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedConfirmedBooking(t, "bk-1", "ls-1", "user-1")

	_, err := f.paymentHandler(stubGateway{settled: true}).Handle(context.Background(), RecordPaymentCommand{
		BookingID: "bk-1",
		Gateway:   "paypal",
		Ref:       "txn-100",
	})
	assert.ErrorIs(t, err, policies.ErrUnknownGateway)
}

func TestRecordPaymentRequiresConfirmedBooking(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedPendingBooking(t, "bk-1", "ls-1", "user-1")

	_, err := f.paymentHandler(stubGateway{settled: true}).Handle(context.Background(), RecordPaymentCommand{
		BookingID: "bk-1",
		Gateway:   "stub",
		Ref:       "txn-100",
	})
	assert.ErrorIs(t, err, domainbooking.ErrPaymentState)
}

func TestRecordPaymentPaidBookingRejectsSecondSettle(t *testing.T) {
	f := newEngineFixture()
	f.seedListing(t, "ls-1", domainlistings.DealRent, 30000)
	f.seedConfirmedBooking(t, "bk-1", "ls-1", "user-1")
	handler := f.paymentHandler(stubGateway{settled: true})

	_, err := handler.Handle(context.Background(), RecordPaymentCommand{
		BookingID: "bk-1", Gateway: "stub", Ref: "txn-100",
	})
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), RecordPaymentCommand{
		BookingID: "bk-1", Gateway: "stub", Ref: "txn-101",
	})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)
}
