package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"slot-booking-backend/internal/booking"
	"slot-booking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	service    *booking.Service
	reconciler *booking.Reconciler
	store      store.Store
	webpush    *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *booking.Service, rec *booking.Reconciler, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		service:    svc,
		reconciler: rec,
		store:      s,
		webpush:    webpushOptions,
	}
}
