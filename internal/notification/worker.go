package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"slot-booking-backend/internal/logger"
	"slot-booking-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans confirmation notifications out to the owner's registered
// browsers without blocking the reconciliation paths.
type WorkerPool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool. Jobs carry reservation IDs.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	logger.Log.Debugf("notification worker %d started", id)
	for {
		select {
		case reservationID := <-wp.jobs:
			wp.sendNotificationsForReservation(ctx, reservationID)
		case <-ctx.Done():
			logger.Log.Debugf("notification worker %d shutting down", id)
			return
		}
	}
}

// ReservationConfirmed implements booking.Notifier.
func (wp *WorkerPool) ReservationConfirmed(reservationID string) {
	wp.Dispatch(reservationID)
}

// Dispatch queues a reservation for notification. A full queue drops the
// job rather than stalling the caller, which may be a provider callback.
func (wp *WorkerPool) Dispatch(reservationID string) {
	select {
	case wp.jobs <- reservationID:
	default:
		logger.Log.Warnf("notification queue full, dropping job for reservation %s", reservationID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

// sendNotificationsForReservation loads the reservation and pushes a
// confirmation message to each of the owner's subscriptions.
func (wp *WorkerPool) sendNotificationsForReservation(ctx context.Context, reservationID string) {
	var reservation model.Reservation
	if err := wp.db.WithContext(ctx).First(&reservation, "id = ?", reservationID).Error; err != nil {
		logger.Log.Errorf("error fetching reservation %s for notification: %v", reservationID, err)
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("owner = ?", reservation.Owner).
		Find(&subscriptions).Error
	if err != nil {
		logger.Log.Errorf("error fetching subscriptions for owner %s: %v", reservation.Owner, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	message := fmt.Sprintf("Your %s slot on %s is confirmed.", reservation.Time, reservation.Date)
	logger.Log.Infof("sending %d confirmation notifications for reservation %s", len(subscriptions), reservationID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		logger.Log.Errorf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		logger.Log.Infof("subscription for endpoint %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			logger.Log.Errorf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
