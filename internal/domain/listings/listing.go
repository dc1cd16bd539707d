package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"basobas/internal/domain/shared/events"
	"basobas/internal/domain/shared/money"
)

var (
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrPriceInvalid    = errors.New("listings: price must be positive")
	ErrInvalidDealType = errors.New("listings: deal type must be rent or sale")
	ErrInvalidState    = errors.New("listings: invalid state transition")
	ErrAddressRequired = errors.New("listings: address must be provided when publishing")
	ErrAdminLocked     = errors.New("listings: status is locked by admin")
	ErrNotFound        = errors.New("listings: not found")
)

type ListingID string
type OwnerID string

// DealType tells whether a listing is offered for rent or for sale.
type DealType string

const (
	DealRent DealType = "rent"
	DealSale DealType = "sale"
)

func ParseDealType(raw string) (DealType, error) {
	switch DealType(strings.ToLower(strings.TrimSpace(raw))) {
	case DealRent:
		return DealRent, nil
	case DealSale:
		return DealSale, nil
	default:
		return "", ErrInvalidDealType
	}
}

// Status is the listing availability state. Rent listings move to StatusRented
// and sale listings to StatusSold when a booking is confirmed.
type Status string

const (
	StatusActive   Status = "active"
	StatusPending  Status = "pending"
	StatusSold     Status = "sold"
	StatusRented   Status = "rented"
	StatusInactive Status = "inactive"
)

type Address struct {
	Line1   string
	City    string
	Country string
	Lat     float64
	Lon     float64
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != ""
}

// Listing is a property record offered for rent or sale. Price is the flat
// sale price, or the rate per 30 days for rent listings.
type Listing struct {
	ID          ListingID
	Owner       OwnerID
	Title       string
	Description string
	DealType    DealType
	Price       money.Money
	Address     Address
	Bedrooms    int
	Bathrooms   int
	AreaSqM     float64
	Photos      []string
	Status      Status
	AdminLocked bool
	Removed     bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateParams struct {
	ID          ListingID
	Owner       OwnerID
	Title       string
	Description string
	DealType    DealType
	Price       money.Money
	Address     Address
	Bedrooms    int
	Bathrooms   int
	AreaSqM     float64
	Photos      []string
	Now         time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, errors.New("listings: owner is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.DealType != DealRent && params.DealType != DealSale {
		return nil, ErrInvalidDealType
	}
	if params.Price.Amount <= 0 {
		return nil, ErrPriceInvalid
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:          params.ID,
		Owner:       params.Owner,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		DealType:    params.DealType,
		Price:       params.Price,
		Address:     params.Address,
		Bedrooms:    params.Bedrooms,
		Bathrooms:   params.Bathrooms,
		AreaSqM:     params.AreaSqM,
		Photos:      append([]string(nil), params.Photos...),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.Record(ListingCreated{ListingID: l.ID, Owner: l.Owner, DealType: l.DealType, At: now})
	return l, nil
}

// Publish makes a pending or inactive listing visible and bookable.
func (l *Listing) Publish(now time.Time) error {
	if l.Status == StatusActive {
		return nil
	}
	if l.Status != StatusPending && l.Status != StatusInactive {
		return ErrInvalidState
	}
	if l.AdminLocked {
		return ErrAdminLocked
	}
	if !l.Address.Valid() {
		return ErrAddressRequired
	}
	l.setStatus(StatusActive, now)
	return nil
}

// Deactivate hides an active listing without deleting it.
func (l *Listing) Deactivate(now time.Time) error {
	if l.Status != StatusActive {
		return ErrInvalidState
	}
	if l.AdminLocked {
		return ErrAdminLocked
	}
	l.setStatus(StatusInactive, now)
	return nil
}

// MarkBooked flips the listing to rented or sold depending on its deal type.
// Invoked only by a booking confirmation.
func (l *Listing) MarkBooked(now time.Time) error {
	if l.Status != StatusActive {
		return ErrInvalidState
	}
	next := StatusRented
	if l.DealType == DealSale {
		next = StatusSold
	}
	l.setStatus(next, now)
	return nil
}

// Release reverts a rented/sold listing to active after a confirmed booking is
// cancelled. An admin-locked listing keeps its current status.
func (l *Listing) Release(now time.Time) error {
	if l.Status != StatusRented && l.Status != StatusSold {
		return ErrInvalidState
	}
	if l.AdminLocked {
		return nil
	}
	l.setStatus(StatusActive, now)
	return nil
}

// Lock freezes the current status against booking-driven changes.
func (l *Listing) Lock(now time.Time) {
	if l.AdminLocked {
		return
	}
	l.AdminLocked = true
	l.UpdatedAt = now.UTC()
	l.Record(ListingLockChanged{ListingID: l.ID, Locked: true, At: l.UpdatedAt})
}

// Unlock lifts the admin status lock.
func (l *Listing) Unlock(now time.Time) {
	if !l.AdminLocked {
		return
	}
	l.AdminLocked = false
	l.UpdatedAt = now.UTC()
	l.Record(ListingLockChanged{ListingID: l.ID, Locked: false, At: l.UpdatedAt})
}

// Remove soft-deletes the listing. Bookings referencing it are orphaned by the
// caller within the same unit of work.
func (l *Listing) Remove(now time.Time) error {
	if l.Removed {
		return ErrInvalidState
	}
	l.Removed = true
	l.setStatus(StatusInactive, now)
	l.Record(ListingRemoved{ListingID: l.ID, Owner: l.Owner, At: now.UTC()})
	return nil
}

// UpdateDetails edits owner-facing fields. Status is never touched here; the
// booking engine is the only status mutation path besides publish/deactivate.
func (l *Listing) UpdateDetails(title, description string, price money.Money, now time.Time) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if price.Amount <= 0 {
		return ErrPriceInvalid
	}
	l.Title = strings.TrimSpace(title)
	l.Description = strings.TrimSpace(description)
	l.Price = price
	l.UpdatedAt = now.UTC()
	l.Record(ListingUpdated{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// AttachPhoto appends an uploaded photo URL.
func (l *Listing) AttachPhoto(url string, now time.Time) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	l.Photos = append(l.Photos, url)
	l.UpdatedAt = now.UTC()
}

func (l *Listing) setStatus(next Status, now time.Time) {
	prev := l.Status
	l.Status = next
	l.UpdatedAt = now.UTC()
	l.Record(ListingStatusChanged{ListingID: l.ID, From: prev, To: next, At: l.UpdatedAt})
}
