package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"slot-booking-backend/config"
	"slot-booking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		slotHandlers := []gin.HandlerFunc{h.GetSlots}
		if cfg.CacheTTLSeconds > 0 {
			// Micro-cache for read-heavy deployments. Availability must
			// read fresh right after a booking, so this stays off unless
			// configured.
			ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
			cacheStore := cache.New(ttl, 2*ttl)
			slotHandlers = []gin.HandlerFunc{mw.Cache(cacheStore, ttl), h.GetSlots}
		}
		api.GET("/slots", slotHandlers...)

		api.POST("/reservations", h.CreateReservation)
		api.DELETE("/reservations/:id", h.CancelReservation)

		api.POST("/payments/callback", h.PaymentCallback)
		api.GET("/payments/status/:id", h.PaymentStatus)

		api.PUT("/subscriptions", h.PutSubscription)
		api.GET("/subscriptions", h.GetSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
