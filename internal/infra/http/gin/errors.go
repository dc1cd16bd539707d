package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookinghandlers "basobas/internal/app/handlers/booking"
	listinghandlers "basobas/internal/app/handlers/listings"
	reviewhandlers "basobas/internal/app/handlers/reviews"
	"basobas/internal/app/policies"
	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
	domainreviews "basobas/internal/domain/reviews"
)

// respondDomainError maps engine errors onto HTTP statuses: permission
// problems are 403, state races and duplicates are 409, bad input is 400 and
// missing aggregates are 404.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrOwnershipConflict),
		errors.Is(err, listinghandlers.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrDuplicateBooking),
		errors.Is(err, domainbooking.ErrConflict),
		errors.Is(err, domainbooking.ErrPaymentState),
		errors.Is(err, bookinghandlers.ErrListingUnavailable),
		errors.Is(err, domainlistings.ErrInvalidState),
		errors.Is(err, domainlistings.ErrAdminLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrInvalidDuration),
		errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domainbooking.ErrTermOrder),
		errors.Is(err, domainlistings.ErrInvalidDealType),
		errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrPriceInvalid),
		errors.Is(err, domainlistings.ErrAddressRequired),
		errors.Is(err, domainreviews.ErrInvalidRating),
		errors.Is(err, reviewhandlers.ErrNotReviewable),
		errors.Is(err, policies.ErrUnknownGateway),
		errors.Is(err, policies.ErrAmountMismatch),
		errors.Is(err, policies.ErrVerificationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainreviews.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bookinghandlers.ErrUnknownAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, policies.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
