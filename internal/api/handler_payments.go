package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"slot-booking-backend/internal/booking"
	"slot-booking-backend/internal/payment"
)

const callbackSuccessPage = `<html>
    <head>
        <title>Payment Successful</title>
        <meta name="viewport" content="width=device-width, initial-scale=1">
        <style>
            body { font-family: sans-serif; text-align: center; padding: 20px; }
            .success { color: #28a745; font-size: 24px; font-weight: bold; }
            p { color: #555; }
        </style>
    </head>
    <body>
        <div class="success">&#9989; Payment Successful</div>
        <p>Your booking has been confirmed.</p>
        <p>You can verify this in the app.</p>
        <button onclick="window.close()">Close Window</button>
    </body>
</html>`

const callbackFailurePage = `<html>
    <head>
        <title>Payment Failed</title>
        <meta name="viewport" content="width=device-width, initial-scale=1">
        <style>
            body { font-family: sans-serif; text-align: center; padding: 20px; }
            .error { color: #dc3545; font-size: 24px; font-weight: bold; }
            p { color: #555; }
        </style>
    </head>
    <body>
        <div class="error">&#10060; Payment Failed</div>
        <p>We could not verify your payment.</p>
        <p>Please try again or contact support.</p>
        <button onclick="window.close()">Close Window</button>
    </body>
</html>`

// PaymentCallback handles the POST /api/payments/callback request from the
// payment provider. It always answers 200 with an outcome page: the
// provider must not be made to retry, regardless of whether reconciliation
// mutated anything.
func (h *Handler) PaymentCallback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		body = nil
	}

	outcome := h.reconciler.HandleCallback(c.Request.Context(), body)
	if outcome.Success {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(callbackSuccessPage))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(callbackFailurePage))
}

// PaymentStatus handles the GET /api/payments/status/:id request: an active
// status poll against the provider for one reservation.
func (h *Handler) PaymentStatus(c *gin.Context) {
	result, err := h.reconciler.CheckStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		var ge *payment.GatewayError
		switch {
		case errors.Is(err, booking.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
		case errors.As(err, &ge):
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check payment status"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
