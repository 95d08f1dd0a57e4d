package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"slot-booking-backend/internal/booking"
)

// GetSlots handles the GET /api/slots request. The optional owner query
// parameter lets the response distinguish the viewer's own reservations.
func (h *Handler) GetSlots(c *gin.Context) {
	date := c.Query("date")
	owner := c.Query("owner")

	slots, err := h.service.ListSlots(c.Request.Context(), date, owner)
	if err != nil {
		var ve *booking.ValidationError
		if errors.As(err, &ve) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to list slots"})
		return
	}

	c.JSON(http.StatusOK, slots)
}
