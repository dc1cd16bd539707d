package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"basobas/internal/app/commands"
	reviewapp "basobas/internal/app/handlers/reviews"
)

type ReviewHTTP interface {
	Submit(c *gin.Context)
}

type ReviewHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	BookingID string `json:"booking_id"`
	Rating    int    `json:"rating"`
	Text      string `json:"text"`
}

func (h ReviewHandler) Submit(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reviewapp.SubmitReviewCommand{
		CommandID: generateCommandID(),
		BookingID: req.BookingID,
		AuthorID:  user.ID,
		Rating:    req.Rating,
		Text:      req.Text,
	}
	result, err := commands.Dispatch[reviewapp.SubmitReviewCommand, *reviewapp.SubmitReviewResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ ReviewHTTP = ReviewHandler{}
