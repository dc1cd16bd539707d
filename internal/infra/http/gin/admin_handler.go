package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"basobas/internal/app/commands"
	listingapp "basobas/internal/app/handlers/listings"
)

type AdminHTTP interface {
	Lock(c *gin.Context)
	Unlock(c *gin.Context)
	Remove(c *gin.Context)
}

// AdminHandler covers moderation: freezing listings and force-removing them.
type AdminHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h AdminHandler) Lock(c *gin.Context) {
	h.setLock(c, true)
}

func (h AdminHandler) Unlock(c *gin.Context) {
	h.setLock(c, false)
}

func (h AdminHandler) setLock(c *gin.Context, locked bool) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	cmd := listingapp.SetLockCommand{ListingID: c.Param("id"), Locked: locked}
	result, err := commands.Dispatch[listingapp.SetLockCommand, *listingapp.ListingStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Remove(c *gin.Context) {
	admin, ok := requireRole(c, "admin")
	if !ok {
		return
	}
	cmd := listingapp.RemoveListingCommand{
		ListingID: c.Param("id"),
		ActorID:   admin.ID,
		AsAdmin:   true,
	}
	result, err := commands.Dispatch[listingapp.RemoveListingCommand, *listingapp.RemoveListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}
