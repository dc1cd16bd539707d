package dto

import (
	"time"

	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
)

type BookingView struct {
	ID            string     `json:"id"`
	ListingID     string     `json:"listing_id"`
	UserID        string     `json:"user_id"`
	DealType      string     `json:"deal_type"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	DurationDays  int        `json:"duration_days,omitempty"`
	TotalAmount   int64      `json:"total_amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	PaymentStatus string     `json:"payment_status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// MapBookingView renders a booking for API responses, presenting overdue
// pending bookings as expired.
func MapBookingView(b *domainbooking.Booking, now time.Time) BookingView {
	view := BookingView{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		UserID:        b.UserID,
		DealType:      string(b.DealType),
		DurationDays:  b.DurationDays,
		TotalAmount:   b.Total.Amount,
		Currency:      b.Total.Currency,
		Status:        string(b.EffectiveStatus(now)),
		PaymentStatus: string(b.PaymentStatus),
		CreatedAt:     b.CreatedAt,
	}
	if !b.Term.IsZero() {
		start, end := b.Term.Start, b.Term.End
		view.StartDate = &start
		view.EndDate = &end
	}
	if b.Status == domainbooking.StatusPending {
		expires := b.ExpiresAt
		view.ExpiresAt = &expires
	}
	return view
}

type BookingCollection struct {
	Items []BookingView `json:"items"`
}

type OwnerBookingView struct {
	BookingView
	ListingTitle string `json:"listing_title"`
}

func MapOwnerBookingView(b *domainbooking.Booking, listing *domainlistings.Listing, now time.Time) OwnerBookingView {
	view := OwnerBookingView{BookingView: MapBookingView(b, now)}
	if listing != nil {
		view.ListingTitle = listing.Title
	}
	return view
}

type OwnerBookingCollection struct {
	Items []OwnerBookingView `json:"items"`
}
