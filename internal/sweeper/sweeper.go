package sweeper

import (
	"context"
	"errors"
	"time"

	"slot-booking-backend/config"
	"slot-booking-backend/internal/logger"
	"slot-booking-backend/internal/model"
	"slot-booking-backend/internal/store"
)

// Service expires abandoned payment holds. A PENDING reservation whose
// payment never reconciles would otherwise occupy its slot forever; the
// sweeper tombstones holds older than the configured threshold through the
// same compare-and-swap the reconciler uses, so a hold that confirms while
// a sweep is in flight is left alone.
type Service struct {
	cfg   config.SweeperConfig
	store store.Store
}

// NewService creates a sweeper for the given policy.
func NewService(cfg config.SweeperConfig, s store.Store) *Service {
	return &Service{cfg: cfg, store: s}
}

// Run executes sweeps on the configured interval until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		logger.Log.Info("reservation expiry sweeper is disabled, not starting")
		return
	}
	logger.Log.Infof("starting reservation expiry sweeper (interval %s, max pending age %s)", s.cfg.Interval, s.cfg.MaxPendingAge)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("reservation expiry sweeper shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SweepOnce cancels every PENDING reservation older than the threshold. It
// returns the number of reservations it expired.
func (s *Service) SweepOnce(ctx context.Context) int {
	cutoff := time.Now().Add(-s.cfg.MaxPendingAge)
	stale, err := s.store.ListStalePending(ctx, cutoff)
	if err != nil {
		logger.Log.Errorf("sweep failed to list stale reservations: %v", err)
		return 0
	}

	expired := 0
	for _, r := range stale {
		err := s.store.Transition(ctx, r.ID, model.StatePending, model.StateCancelled)
		switch {
		case err == nil:
			logger.Log.Infof("expired abandoned reservation %s (slot %s %s, held since %s)", r.ID, r.Date, r.Time, r.CreatedAt.Format(time.RFC3339))
			expired++
		case errors.Is(err, store.ErrStaleState):
			// Settled between the listing and the sweep.
		default:
			logger.Log.Errorf("sweep failed to expire reservation %s: %v", r.ID, err)
		}
	}
	return expired
}
