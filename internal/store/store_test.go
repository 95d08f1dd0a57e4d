package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"slot-booking-backend/internal/model"
)

// newTestDB opens an in-memory sqlite database with the same error
// translation the production postgres connection uses, so the partial
// unique index and the conditional UPDATE behave for real.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Reservation{}, &model.PushSubscription{}))
	return db
}

func TestCreate_RejectsSecondActiveReservation(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	first := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	require.NoError(t, s.Create(ctx, first))

	second := model.NewReservation("2025-06-10", "10:00", "bob", 60, 100)
	err := s.Create(ctx, second)
	assert.ErrorIs(t, err, ErrSlotTaken)

	// A different slot on the same date is unaffected.
	other := model.NewReservation("2025-06-10", "11:00", "bob", 60, 100)
	assert.NoError(t, s.Create(ctx, other))
}

func TestCreate_CancelledReservationFreesSlot(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	first := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	require.NoError(t, s.Create(ctx, first))
	require.NoError(t, s.Transition(ctx, first.ID, model.StatePending, model.StateCancelled))

	// The tombstone stays in the table but no longer occupies the slot.
	second := model.NewReservation("2025-06-10", "10:00", "bob", 60, 100)
	assert.NoError(t, s.Create(ctx, second))

	active, err := s.FindBySlot(ctx, "2025-06-10", "10:00")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	// The cancelled row is still retrievable by ID and order reference.
	old, err := s.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCancelled, old.State)
}

func TestFindBySlot_IgnoresCancelled(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	r := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	require.NoError(t, s.Create(ctx, r))
	require.NoError(t, s.Transition(ctx, r.ID, model.StatePending, model.StateCancelled))

	_, err := s.FindBySlot(ctx, "2025-06-10", "10:00")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByOrderReference(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	r := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	require.NoError(t, s.Create(ctx, r))

	found, err := s.FindByOrderReference(ctx, r.OrderReference)
	require.NoError(t, err)
	assert.Equal(t, r.ID, found.ID)

	_, err = s.FindByOrderReference(ctx, "no-such-reference")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_CompareAndSwap(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	r := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	require.NoError(t, s.Create(ctx, r))

	// First transition wins.
	require.NoError(t, s.Transition(ctx, r.ID, model.StatePending, model.StateConfirmed))

	// A redundant confirm is a stale-state no-op, not a corruption.
	err := s.Transition(ctx, r.ID, model.StatePending, model.StateConfirmed)
	assert.ErrorIs(t, err, ErrStaleState)

	// A competing cancel cannot leave the terminal state either.
	err = s.Transition(ctx, r.ID, model.StatePending, model.StateCancelled)
	assert.ErrorIs(t, err, ErrStaleState)

	got, err := s.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateConfirmed, got.State)
}

func TestTransition_UnknownReservation(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	err := s.Transition(context.Background(), "missing", model.StatePending, model.StateConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_ConcurrentSameSlot(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := model.NewReservation("2025-06-10", "10:00", fmt.Sprintf("user-%d", i), 60, 100)
			errs[i] = s.Create(ctx, r)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent create must win the slot")
}

func TestTransition_ConcurrentConfirm(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	r := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	require.NoError(t, s.Create(ctx, r))

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Transition(ctx, r.ID, model.StatePending, model.StateConfirmed)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrStaleState)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent confirm must take effect")
}

func TestListByDate_ActiveInSlotOrder(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	late := model.NewReservation("2025-06-10", "15:00", "alice", 60, 100)
	early := model.NewReservation("2025-06-10", "09:00", "bob", 60, 100)
	cancelled := model.NewReservation("2025-06-10", "12:00", "carol", 60, 100)
	otherDay := model.NewReservation("2025-06-11", "09:00", "dave", 60, 100)
	for _, r := range []*model.Reservation{late, early, cancelled, otherDay} {
		require.NoError(t, s.Create(ctx, r))
	}
	require.NoError(t, s.Transition(ctx, cancelled.ID, model.StatePending, model.StateCancelled))

	rs, err := s.ListByDate(ctx, "2025-06-10")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "09:00", rs[0].Time)
	assert.Equal(t, "15:00", rs[1].Time)
}

func TestListStalePending(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	stale := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	fresh := model.NewReservation("2025-06-10", "11:00", "alice", 60, 100)
	confirmed := model.NewReservation("2025-06-10", "12:00", "alice", 60, 100)
	for _, r := range []*model.Reservation{stale, fresh, confirmed} {
		require.NoError(t, s.Create(ctx, r))
	}
	require.NoError(t, s.Transition(ctx, confirmed.ID, model.StatePending, model.StateConfirmed))

	// Backdate the stale and confirmed rows past the cutoff.
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&model.Reservation{}).Where("id IN ?", []string{stale.ID, confirmed.ID}).Update("created_at", old).Error)

	got, err := s.ListStalePending(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stale.ID, got[0].ID)
}
