package booking

import (
	"basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
)

// RentTotal charges the per-30-day listing rate pro-rated by day, never for
// less than MinRentDays: round(max(days, 30) * price / 30).
func RentTotal(rate money.Money, durationDays int) money.Money {
	days := int64(durationDays)
	if days < MinRentDays {
		days = MinRentDays
	}
	gross := days * rate.Amount
	// integer round-half-up of gross/30
	total := (gross + MinRentDays/2) / MinRentDays
	return money.Money{Amount: total, Currency: rate.Currency}
}

// QuoteTotal computes the booking total for a listing: flat price for sale,
// day-rated price for rent.
func QuoteTotal(listing *listings.Listing, term Term) money.Money {
	if listing.DealType == listings.DealSale {
		return listing.Price
	}
	return RentTotal(listing.Price, term.DurationDays())
}
