package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
	domainreviews "basobas/internal/domain/reviews"
)

// ListingRepository is an in-memory implementation used in tests and the
// memory storage mode.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

// ByID returns a copy of the listing so concurrent writers race on Save, not
// on shared aggregate state.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return cloneListing(listing), nil
}

// Save applies a conditional write: the stored version must match the version
// the aggregate was loaded with.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[listing.ID]; ok && current.Version != listing.Version {
		return domainbooking.ErrConflict
	}
	listing.Version++
	r.items[listing.ID] = cloneListing(listing)
	return nil
}

// Search returns listings that satisfy the provided filters.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return domainlistings.SearchResult{}, ctx.Err()
			default:
			}
		}

		if listing.Removed {
			continue
		}
		if opts.OnlyActive && listing.Status != domainlistings.StatusActive {
			continue
		}
		if opts.Owner != "" && listing.Owner != opts.Owner {
			continue
		}
		if len(opts.Statuses) > 0 && !statusIncluded(listing.Status, opts.Statuses) {
			continue
		}
		if opts.DealType != "" && listing.DealType != opts.DealType {
			continue
		}
		if opts.City != "" && !strings.EqualFold(listing.Address.City, opts.City) {
			continue
		}
		if opts.LocationQuery != "" && !matchLocation(listing, opts.LocationQuery) {
			continue
		}
		if opts.PriceMin > 0 && listing.Price.Amount < opts.PriceMin {
			continue
		}
		if opts.PriceMax > 0 && listing.Price.Amount > opts.PriceMax {
			continue
		}
		if opts.MinBedrooms > 0 && listing.Bedrooms < opts.MinBedrooms {
			continue
		}
		matches = append(matches, cloneListing(listing))
	}

	sort.Slice(matches, func(i, j int) bool {
		switch opts.Sort {
		case domainlistings.SortByPriceDesc:
			if matches[i].Price.Amount == matches[j].Price.Amount {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
			return matches[i].Price.Amount > matches[j].Price.Amount
		case domainlistings.SortByPriceAsc:
			if matches[i].Price.Amount == matches[j].Price.Amount {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
			return matches[i].Price.Amount < matches[j].Price.Amount
		default:
			if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
				return matches[i].Price.Amount < matches[j].Price.Amount
			}
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	return domainlistings.SearchResult{
		Items: matches[start:end],
		Total: total,
	}, nil
}

func matchLocation(listing *domainlistings.Listing, needle string) bool {
	if listing == nil {
		return false
	}
	full := strings.ToLower(strings.Join([]string{
		listing.Address.City,
		listing.Address.Country,
		listing.Address.Line1,
		listing.Title,
	}, " "))
	return strings.Contains(full, needle)
}

func statusIncluded(status domainlistings.Status, allowed []domainlistings.Status) bool {
	for _, candidate := range allowed {
		if status == candidate {
			return true
		}
	}
	return false
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	if l == nil {
		return nil
	}
	copyListing := *l
	copyListing.Photos = append([]string(nil), l.Photos...)
	copyListing.ClearEvents()
	return &copyListing
}

// BookingRepository stores bookings in memory with conditional writes.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(booking), nil
}

// Save rejects stale aggregates. Two actors loading the same booking version
// race on this check; exactly one write wins.
func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[booking.ID]; ok && current.Version != booking.Version {
		return domainbooking.ErrConflict
	}
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.UserID == userID {
			matches = append(matches, cloneBooking(booking))
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.ListingID == listingID {
			matches = append(matches, cloneBooking(booking))
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *BookingRepository) ActiveForUser(ctx context.Context, userID string, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.UserID == userID && booking.ListingID == listingID && booking.Status.Active() {
			matches = append(matches, cloneBooking(booking))
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *BookingRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.Status == domainbooking.StatusPending && !now.Before(booking.ExpiresAt) {
			matches = append(matches, cloneBooking(booking))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ExpiresAt.Before(matches[j].ExpiresAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func sortByCreated(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	if b == nil {
		return nil
	}
	copyBooking := *b
	copyBooking.ClearEvents()
	return &copyBooking
}

// ReviewsRepository is a lightweight in-memory review store.
type ReviewsRepository struct {
	mu    sync.RWMutex
	items map[string]*domainreviews.Review
}

func NewReviewsRepository() *ReviewsRepository {
	return &ReviewsRepository{items: make(map[string]*domainreviews.Review)}
}

func (r *ReviewsRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID, authorID string) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if review, ok := r.items[bookingReviewKey(bookingID, authorID)]; ok {
		return review, nil
	}
	return nil, domainreviews.ErrNotFound
}

func (r *ReviewsRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.ListingID == listingID {
			matches = append(matches, review)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if offset > len(matches) {
		offset = len(matches)
	}
	matches = matches[offset:]
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *ReviewsRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[bookingReviewKey(review.BookingID, review.AuthorID)] = review
	return nil
}

func bookingReviewKey(bookingID domainbooking.BookingID, authorID string) string {
	return string(bookingID) + ":" + authorID
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
var _ domainbooking.Repository = (*BookingRepository)(nil)
var _ domainreviews.Repository = (*ReviewsRepository)(nil)
