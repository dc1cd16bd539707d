package listings

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"basobas/internal/app/dto"
	handlersupport "basobas/internal/app/handlers/support"
	"basobas/internal/app/queries"
	"basobas/internal/app/uow"
	domainlistings "basobas/internal/domain/listings"
)

const (
	searchListingsKey = "listing.search"
	getListingKey     = "listing.get"
	ownerListingsKey  = "listing.list_owner"
)

type SearchListingsQuery struct {
	DealType    string
	City        string
	Query       string
	PriceMin    int64
	PriceMax    int64
	MinBedrooms int
	Sort        string
	Limit       int
	Offset      int
}

func (q SearchListingsQuery) Key() string { return searchListingsKey }

// SearchListingsHandler serves the public catalog. Only active listings are
// visible here regardless of filters.
type SearchListingsHandler struct {
	UoWFactory uow.Factory
	Logger     *slog.Logger
}

func (h *SearchListingsHandler) Handle(ctx context.Context, q SearchListingsQuery) (dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainlistings.SearchParams{
		OnlyActive:    true,
		City:          q.City,
		LocationQuery: q.Query,
		PriceMin:      q.PriceMin,
		PriceMax:      q.PriceMax,
		MinBedrooms:   q.MinBedrooms,
		Sort:          domainlistings.SortOrder(q.Sort),
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
	if strings.TrimSpace(q.DealType) != "" {
		dealType, err := domainlistings.ParseDealType(q.DealType)
		if err != nil {
			return dto.ListingCollection{}, err
		}
		params.DealType = dealType
	}

	result, err := unit.Listings().Search(execCtx, params)
	if err != nil {
		return dto.ListingCollection{}, err
	}

	items := make([]dto.ListingView, 0, len(result.Items))
	for _, l := range result.Items {
		items = append(items, dto.MapListingView(l))
	}
	return dto.ListingCollection{Items: items, Total: result.Total}, nil
}

// ListingOverview is the detail page payload: the listing plus its booking
// activity, visible in full to the owner and trimmed for everyone else.
type ListingOverview struct {
	Listing  dto.ListingView   `json:"listing"`
	Bookings []dto.BookingView `json:"bookings,omitempty"`
}

type GetListingHandler struct {
	UoWFactory uow.Factory
	Logger     *slog.Logger
	Now        func() time.Time
}

type GetListingOverviewQuery struct {
	ListingID string
	ViewerID  string
}

func (q GetListingOverviewQuery) Key() string { return getListingKey }

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingOverviewQuery) (ListingOverview, error) {
	id := strings.TrimSpace(q.ListingID)
	if id == "" {
		return ListingOverview{}, errors.New("listing id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return ListingOverview{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(id))
	if err != nil {
		return ListingOverview{}, err
	}
	if listing.Removed {
		return ListingOverview{}, domainlistings.ErrNotFound
	}

	overview := ListingOverview{Listing: dto.MapListingView(listing)}
	if q.ViewerID != "" && q.ViewerID == string(listing.Owner) {
		bks, err := unit.Bookings().ListByListing(execCtx, listing.ID)
		if err != nil {
			return ListingOverview{}, err
		}
		now := clock(h.Now)
		for _, bk := range bks {
			overview.Bookings = append(overview.Bookings, dto.MapBookingView(bk, now))
		}
	}
	return overview, nil
}

type OwnerListingsQuery struct {
	OwnerID string
	Limit   int
	Offset  int
}

func (q OwnerListingsQuery) Key() string { return ownerListingsKey }

type OwnerListingsHandler struct {
	UoWFactory uow.Factory
	Logger     *slog.Logger
}

func (h *OwnerListingsHandler) Handle(ctx context.Context, q OwnerListingsQuery) (dto.ListingCollection, error) {
	ownerID := strings.TrimSpace(q.OwnerID)
	if ownerID == "" {
		return dto.ListingCollection{}, errors.New("owner id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	result, err := unit.Listings().Search(execCtx, domainlistings.SearchParams{
		Owner:  domainlistings.OwnerID(ownerID),
		Sort:   domainlistings.SortByNewest,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return dto.ListingCollection{}, err
	}
	items := make([]dto.ListingView, 0, len(result.Items))
	for _, l := range result.Items {
		items = append(items, dto.MapListingView(l))
	}
	return dto.ListingCollection{Items: items, Total: result.Total}, nil
}

var _ queries.Handler[SearchListingsQuery, dto.ListingCollection] = (*SearchListingsHandler)(nil)
var _ queries.Handler[GetListingOverviewQuery, ListingOverview] = (*GetListingHandler)(nil)
var _ queries.Handler[OwnerListingsQuery, dto.ListingCollection] = (*OwnerListingsHandler)(nil)
