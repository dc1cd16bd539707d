package uow

import (
	"context"

	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
	domainreviews "basobas/internal/domain/reviews"
)

// UnitOfWork coordinates repositories inside a transaction boundary. Booking
// and listing status always change through the same unit so the two writes
// commit or roll back together.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
