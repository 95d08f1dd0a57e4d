package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"slot-booking-backend/internal/model"
)

// Store defines the persistence operations for reservations.
//
// Create enforces the one-active-reservation-per-slot invariant atomically
// with the insert; Transition is a compare-and-swap on state. Together they
// are the only mutation paths, which is what makes reconciliation safe to
// replay.
type Store interface {
	DB() *gorm.DB

	Create(ctx context.Context, r *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	FindByOrderReference(ctx context.Context, ref string) (*model.Reservation, error)
	FindBySlot(ctx context.Context, date, timeLabel string) (*model.Reservation, error)
	ListByDate(ctx context.Context, date string) ([]model.Reservation, error)
	Transition(ctx context.Context, id string, from, to model.State) error
	ListStalePending(ctx context.Context, olderThan time.Time) ([]model.Reservation, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store. The *gorm.DB must have been
// opened with TranslateError enabled so unique-index violations surface as
// gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Create inserts a reservation. The partial unique index on (date, time)
// over non-CANCELLED rows rejects a second active hold on the same slot in
// the database, so concurrent inserts cannot both succeed.
func (s *gormStore) Create(ctx context.Context, r *model.Reservation) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (s *gormStore) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) FindByOrderReference(ctx context.Context, ref string) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, "order_reference = ?", ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// FindBySlot returns the active (PENDING or CONFIRMED) reservation for the
// slot, or ErrNotFound when the slot is free.
func (s *gormStore) FindBySlot(ctx context.Context, date, timeLabel string) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).
		Where("date = ? AND time = ? AND state <> ?", date, timeLabel, model.StateCancelled).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ListByDate returns all active reservations for the date, ordered by slot
// time.
func (s *gormStore) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	var rs []model.Reservation
	err := s.db.WithContext(ctx).
		Where("date = ? AND state <> ?", date, model.StateCancelled).
		Order("time").
		Find(&rs).Error
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Transition moves the reservation from the expected state to the new one
// with a single conditional UPDATE. When the row was not in the expected
// state the update matches nothing: a follow-up read distinguishes a lost
// race (ErrStaleState) from a missing reservation (ErrNotFound).
func (s *gormStore) Transition(ctx context.Context, id string, from, to model.State) error {
	res := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if res.Error != nil {
		return fmt.Errorf("failed to transition reservation %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrStaleState
	}
	return nil
}

// ListStalePending returns PENDING reservations created before the cutoff.
// Used by the expiry sweeper.
func (s *gormStore) ListStalePending(ctx context.Context, olderThan time.Time) ([]model.Reservation, error) {
	var rs []model.Reservation
	err := s.db.WithContext(ctx).
		Where("state = ? AND created_at < ?", model.StatePending, olderThan).
		Find(&rs).Error
	if err != nil {
		return nil, err
	}
	return rs, nil
}
