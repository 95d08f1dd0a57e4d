package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"slot-booking-backend/internal/booking"
	"slot-booking-backend/internal/payment"
)

type createReservationRequest struct {
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Owner    string `json:"owner" binding:"required"`
	Duration int    `json:"duration" binding:"required"`
	Amount   int64  `json:"amount" binding:"required"`
}

// CreateReservation handles the POST /api/reservations request.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Reserve(c.Request.Context(), req.Date, req.Time, req.Owner, req.Duration, req.Amount)
	if err != nil {
		var ve *booking.ValidationError
		var ge *payment.GatewayError
		switch {
		case errors.As(err, &ve):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
		case errors.Is(err, booking.ErrSlotConflict):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Slot already booked"})
		case errors.As(err, &ge):
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Payment initiation failed"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reservation"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

type cancelReservationRequest struct {
	Owner string `json:"owner" binding:"required"`
}

// CancelReservation handles the DELETE /api/reservations/:id request.
func (h *Handler) CancelReservation(c *gin.Context) {
	var req cancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "owner is required to cancel"})
		return
	}

	err := h.service.Cancel(c.Request.Context(), c.Param("id"), req.Owner)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
		case errors.Is(err, booking.ErrNotAuthorized):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized to cancel this reservation"})
		case errors.Is(err, booking.ErrInvalidState):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Reservation is no longer cancellable"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel reservation"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reservation cancelled"})
}
