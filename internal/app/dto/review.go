package dto

import (
	"time"

	domainreviews "basobas/internal/domain/reviews"
)

type ReviewView struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func MapReviewView(r *domainreviews.Review) ReviewView {
	return ReviewView{
		ID:        string(r.ID),
		ListingID: string(r.ListingID),
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
}

type ReviewCollection struct {
	Items []ReviewView `json:"items"`
}
