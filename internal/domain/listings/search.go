package listings

import "strings"

type SortOrder string

const (
	SortByPriceAsc  SortOrder = "price_asc"
	SortByPriceDesc SortOrder = "price_desc"
	SortByNewest    SortOrder = "newest"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type SearchParams struct {
	Owner         OwnerID
	OnlyActive    bool
	Statuses      []Status
	DealType      DealType
	City          string
	LocationQuery string
	PriceMin      int64
	PriceMax      int64
	MinBedrooms   int
	Sort          SortOrder
	Limit         int
	Offset        int
}

type SearchResult struct {
	Items []*Listing
	Total int
}

// Normalized clamps pagination and lowercases free-text filters.
func (p SearchParams) Normalized() SearchParams {
	out := p
	if out.Limit <= 0 {
		out.Limit = defaultSearchLimit
	}
	if out.Limit > maxSearchLimit {
		out.Limit = maxSearchLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	out.City = strings.TrimSpace(p.City)
	out.LocationQuery = strings.ToLower(strings.TrimSpace(p.LocationQuery))
	return out
}
