package dto

import (
	"time"

	domainlistings "basobas/internal/domain/listings"
)

type ListingView struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DealType    string    `json:"deal_type"`
	PriceAmount int64     `json:"price_amount"`
	Currency    string    `json:"currency"`
	City        string    `json:"city,omitempty"`
	Bedrooms    int       `json:"bedrooms,omitempty"`
	Bathrooms   int       `json:"bathrooms,omitempty"`
	AreaSqM     float64   `json:"area_sq_m,omitempty"`
	Photos      []string  `json:"photos,omitempty"`
	Status      string    `json:"status"`
	AdminLocked bool      `json:"admin_locked,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func MapListingView(l *domainlistings.Listing) ListingView {
	return ListingView{
		ID:          string(l.ID),
		Owner:       string(l.Owner),
		Title:       l.Title,
		Description: l.Description,
		DealType:    string(l.DealType),
		PriceAmount: l.Price.Amount,
		Currency:    l.Price.Currency,
		City:        l.Address.City,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		AreaSqM:     l.AreaSqM,
		Photos:      append([]string(nil), l.Photos...),
		Status:      string(l.Status),
		AdminLocked: l.AdminLocked,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

type ListingCollection struct {
	Items []ListingView `json:"items"`
	Total int           `json:"total"`
}
