package sweeper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"slot-booking-backend/config"
	"slot-booking-backend/internal/model"
	"slot-booking-backend/internal/store"
)

func newTestStore(t *testing.T) (store.Store, *gorm.DB) {
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
	return store.NewGormStore(db), db
}

func backdate(t *testing.T, db *gorm.DB, id string, age time.Duration) {
	t.Helper()
	err := db.Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("created_at", time.Now().Add(-age)).Error
	require.NoError(t, err)
}

func TestSweepOnce_ExpiresOnlyStalePending(t *testing.T) {
	st, db := newTestStore(t)
	ctx := context.Background()

	stale := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	fresh := model.NewReservation("2025-06-10", "11:00", "bob", 60, 100)
	confirmed := model.NewReservation("2025-06-10", "12:00", "carol", 60, 100)
	for _, r := range []*model.Reservation{stale, fresh, confirmed} {
		require.NoError(t, st.Create(ctx, r))
	}
	require.NoError(t, st.Transition(ctx, confirmed.ID, model.StatePending, model.StateConfirmed))

	backdate(t, db, stale.ID, 2*time.Hour)
	backdate(t, db, confirmed.ID, 2*time.Hour)

	svc := NewService(config.SweeperConfig{Enabled: true, MaxPendingAge: time.Hour}, st)
	assert.Equal(t, 1, svc.SweepOnce(ctx))

	got, err := st.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCancelled, got.State)

	got, err = st.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatePending, got.State)

	// An old but settled reservation is never touched.
	got, err = st.FindByID(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateConfirmed, got.State)
}

func TestSweepOnce_FreesTheSlot(t *testing.T) {
	st, db := newTestStore(t)
	ctx := context.Background()

	abandoned := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	require.NoError(t, st.Create(ctx, abandoned))
	backdate(t, db, abandoned.ID, time.Hour)

	svc := NewService(config.SweeperConfig{Enabled: true, MaxPendingAge: 30 * time.Minute}, st)
	require.Equal(t, 1, svc.SweepOnce(ctx))

	// The expired hold no longer blocks the slot.
	next := model.NewReservation("2025-06-10", "10:00", "bob", 60, 100)
	assert.NoError(t, st.Create(ctx, next))
}

func TestSweepOnce_NothingStale(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	fresh := model.NewReservation("2025-06-10", "10:00", "alice", 60, 100)
	require.NoError(t, st.Create(ctx, fresh))

	svc := NewService(config.SweeperConfig{Enabled: true, MaxPendingAge: time.Hour}, st)
	assert.Equal(t, 0, svc.SweepOnce(ctx))
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	st, _ := newTestStore(t)
	svc := NewService(config.SweeperConfig{Enabled: false, Interval: time.Millisecond}, st)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return for a disabled sweeper")
	}
}
