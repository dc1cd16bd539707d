package booking

import (
	"time"

	"basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID
	ListingID listings.ListingID
	UserID    string
	DealType  listings.DealType
	Total     money.Money
	ExpiresAt time.Time
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	ListingID listings.ListingID
	UserID    string
	Total     money.Money
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID    BookingID
	ListingID    listings.ListingID
	UserID       string
	By           Party
	WasConfirmed bool
	At           time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingExpired struct {
	BookingID BookingID
	ListingID listings.ListingID
	UserID    string
	At        time.Time
}

func (e BookingExpired) EventName() string     { return "booking.expired" }
func (e BookingExpired) AggregateID() string   { return string(e.BookingID) }
func (e BookingExpired) OccurredAt() time.Time { return e.At }

type BookingOrphaned struct {
	BookingID BookingID
	ListingID listings.ListingID
	UserID    string
	At        time.Time
}

func (e BookingOrphaned) EventName() string     { return "booking.property_deleted" }
func (e BookingOrphaned) AggregateID() string   { return string(e.BookingID) }
func (e BookingOrphaned) OccurredAt() time.Time { return e.At }

type PaymentRecorded struct {
	BookingID BookingID
	UserID    string
	Outcome   PaymentStatus
	Ref       string
	At        time.Time
}

func (e PaymentRecorded) EventName() string     { return "booking.payment_recorded" }
func (e PaymentRecorded) AggregateID() string   { return string(e.BookingID) }
func (e PaymentRecorded) OccurredAt() time.Time { return e.At }
