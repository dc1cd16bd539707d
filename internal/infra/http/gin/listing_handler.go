package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"basobas/internal/app/dto"
	listingapp "basobas/internal/app/handlers/listings"
	reviewapp "basobas/internal/app/handlers/reviews"
	"basobas/internal/app/queries"
)

type ListingHTTP interface {
	Catalog(c *gin.Context)
	Overview(c *gin.Context)
	Reviews(c *gin.Context)
}

// ListingHandler wires the public catalog queries to HTTP.
type ListingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Catalog responds with a filtered collection of active listings.
func (h ListingHandler) Catalog(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	query := listingapp.SearchListingsQuery{
		DealType:    c.Query("deal_type"),
		City:        c.Query("city"),
		Query:       c.Query("q"),
		PriceMin:    parseInt64(c.Query("price_min")),
		PriceMax:    parseInt64(c.Query("price_max")),
		MinBedrooms: parseInt(c.Query("min_bedrooms")),
		Sort:        c.Query("sort"),
		Limit:       parseIntWithDefault(c.Query("limit"), 24),
		Offset:      parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[listingapp.SearchListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Overview(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	listingID := c.Param("id")
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}
	viewerID := ""
	if p, ok := currentPrincipal(c); ok {
		viewerID = p.ID
	}
	query := listingapp.GetListingOverviewQuery{ListingID: listingID, ViewerID: viewerID}
	result, err := queries.Ask[listingapp.GetListingOverviewQuery, listingapp.ListingOverview](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Reviews(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	query := reviewapp.ListReviewsQuery{
		ListingID: c.Param("id"),
		Limit:     parseIntWithDefault(c.Query("limit"), 20),
		Offset:    parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[reviewapp.ListReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseIntWithDefault(raw string, fallback int) int {
	value := parseInt(raw)
	if value == 0 {
		return fallback
	}
	return value
}

func parseInt64(raw string) int64 {
	value, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if value < 0 {
		return 0
	}
	return value
}
