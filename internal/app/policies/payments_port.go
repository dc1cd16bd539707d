package policies

import (
	"context"
	"errors"

	"basobas/internal/domain/shared/money"
)

var (
	ErrUnknownGateway     = errors.New("payments: unknown gateway")
	ErrVerificationFailed = errors.New("payments: verification failed")
	ErrAmountMismatch     = errors.New("payments: amount does not match booking total")
	ErrGatewayUnavailable = errors.New("payments: gateway unavailable")
)

// Verification is the gateway's answer for a transaction reference.
type Verification struct {
	Ref     string
	Amount  money.Money
	Settled bool
}

// PaymentGateway verifies a callback-reported transaction with the upstream
// provider (eSewa, Khalti) before the booking is marked paid.
type PaymentGateway interface {
	Name() string
	Verify(ctx context.Context, ref string, amount money.Money) (Verification, error)
}
