package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"basobas/internal/app/commands"
	"basobas/internal/app/dto"
	bookingapp "basobas/internal/app/handlers/booking"
	listingapp "basobas/internal/app/handlers/listings"
	"basobas/internal/app/queries"
	"basobas/internal/infra/storage/s3"
)

type OwnerHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Publish(c *gin.Context)
	Unpublish(c *gin.Context)
	Remove(c *gin.Context)
	UploadPhoto(c *gin.Context)
	Bookings(c *gin.Context)
}

// OwnerHandler serves the owner console: listing management and the booking
// decision inbox.
type OwnerHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Uploader s3.Uploader
	Logger   *slog.Logger
}

func (h OwnerHandler) List(c *gin.Context) {
	owner, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	query := listingapp.OwnerListingsQuery{
		OwnerID: owner.ID,
		Limit:   parseIntWithDefault(c.Query("limit"), 24),
		Offset:  parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[listingapp.OwnerListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createListingRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DealType    string  `json:"deal_type"`
	PriceAmount int64   `json:"price_amount"`
	Line1       string  `json:"line1"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Bedrooms    int     `json:"bedrooms"`
	Bathrooms   int     `json:"bathrooms"`
	AreaSqM     float64 `json:"area_sq_m"`
}

func (h OwnerHandler) Create(c *gin.Context) {
	owner, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingapp.CreateListingCommand{
		CommandID:       generateCommandID(),
		OwnerID:         owner.ID,
		Title:           req.Title,
		Description:     req.Description,
		DealType:        req.DealType,
		PriceAmount:     req.PriceAmount,
		Line1:           req.Line1,
		City:            req.City,
		Country:         req.Country,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		AreaSqM:         req.AreaSqM,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *listingapp.CreateListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updateListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceAmount int64  `json:"price_amount"`
}

func (h OwnerHandler) Update(c *gin.Context) {
	owner, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingapp.UpdateListingCommand{
		ListingID:   c.Param("id"),
		OwnerID:     owner.ID,
		Title:       req.Title,
		Description: req.Description,
		PriceAmount: req.PriceAmount,
	}
	result, err := commands.Dispatch[listingapp.UpdateListingCommand, *listingapp.ListingStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OwnerHandler) Publish(c *gin.Context) {
	h.setPublished(c, true)
}

func (h OwnerHandler) Unpublish(c *gin.Context) {
	h.setPublished(c, false)
}

func (h OwnerHandler) setPublished(c *gin.Context, publish bool) {
	owner, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	cmd := listingapp.PublishListingCommand{
		ListingID: c.Param("id"),
		OwnerID:   owner.ID,
		Publish:   publish,
	}
	result, err := commands.Dispatch[listingapp.PublishListingCommand, *listingapp.ListingStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Remove soft-deletes the listing; every still-active booking on it becomes
// property_deleted in the same transaction.
func (h OwnerHandler) Remove(c *gin.Context) {
	owner, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	cmd := listingapp.RemoveListingCommand{
		ListingID: c.Param("id"),
		ActorID:   owner.ID,
	}
	result, err := commands.Dispatch[listingapp.RemoveListingCommand, *listingapp.RemoveListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OwnerHandler) UploadPhoto(c *gin.Context) {
	owner, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads unavailable"})
		return
	}
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer file.Close()

	listingID := c.Param("id")
	ext := strings.ToLower(path.Ext(header.Filename))
	key := fmt.Sprintf("listings/%s/%s%s", listingID, uuid.NewString(), ext)
	url, err := h.Uploader.Upload(c.Request.Context(), key, file, header.Header.Get("Content-Type"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("photo upload failed", "listing_id", listingID, "error", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}

	cmd := listingapp.AttachPhotoCommand{
		ListingID: listingID,
		OwnerID:   owner.ID,
		PhotoURL:  url,
	}
	result, err := commands.Dispatch[listingapp.AttachPhotoCommand, *listingapp.ListingStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"listing_id": result.ListingID, "photo_url": url})
}

func (h OwnerHandler) Bookings(c *gin.Context) {
	owner, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	query := bookingapp.ListOwnerBookingsQuery{
		OwnerID: owner.ID,
		Status:  c.Query("status"),
	}
	result, err := queries.Ask[bookingapp.ListOwnerBookingsQuery, dto.OwnerBookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ OwnerHTTP = OwnerHandler{}
