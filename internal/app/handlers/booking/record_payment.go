package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"basobas/internal/app/commands"
	"basobas/internal/app/middleware"
	"basobas/internal/app/outbox"
	"basobas/internal/app/policies"
	"basobas/internal/app/uow"
	domainbooking "basobas/internal/domain/booking"
)

const recordPaymentKey = "booking.record_payment"

type RecordPaymentCommand struct {
	BookingID       string
	Gateway         string
	Ref             string
	IdempotencyKeyV string
}

func (c RecordPaymentCommand) Key() string { return recordPaymentKey }

func (c RecordPaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RecordPaymentCommand) ResultPrototype() any { return &RecordPaymentResult{} }

type RecordPaymentResult struct {
	BookingID     string `json:"booking_id"`
	PaymentStatus string `json:"payment_status"`
}

// RecordPaymentHandler settles a gateway callback against a confirmed
// booking. The reported transaction is re-verified with the gateway before
// anything is written; a failed verification is recorded as a failed payment.
type RecordPaymentHandler struct {
	UoWFactory uow.Factory
	Gateways   map[string]policies.PaymentGateway
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (*RecordPaymentResult, error) {
	gateway, ok := h.Gateways[strings.ToLower(strings.TrimSpace(cmd.Gateway))]
	if !ok {
		return nil, policies.ErrUnknownGateway
	}

	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	bk, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}

	now := h.now()
	outcome := domainbooking.PaymentFailed
	verification, err := gateway.Verify(ctx, cmd.Ref, bk.Total)
	if err == nil && verification.Settled {
		outcome = domainbooking.PaymentPaid
	} else if h.Logger != nil {
		h.Logger.Warn("payment verification did not settle",
			"booking_id", bk.ID, "gateway", gateway.Name(), "ref", cmd.Ref, "error", err)
	}

	if err := bk.RecordPayment(outcome, cmd.Ref, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, bk); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &bk.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("payment recorded", "booking_id", bk.ID, "gateway", gateway.Name(), "outcome", outcome)
	}
	return &RecordPaymentResult{BookingID: string(bk.ID), PaymentStatus: string(bk.PaymentStatus)}, nil
}

func (h *RecordPaymentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RecordPaymentCommand, *RecordPaymentResult] = (*RecordPaymentHandler)(nil)
var _ middleware.IdempotentCommand = RecordPaymentCommand{}
