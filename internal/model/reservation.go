package model

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a reservation.
type State string

const (
	// StatePending marks a reservation awaiting payment settlement.
	StatePending State = "PENDING"
	// StateConfirmed marks a paid reservation. Terminal.
	StateConfirmed State = "CONFIRMED"
	// StateCancelled marks a cancelled or failed reservation. Terminal.
	// Cancelled rows are tombstones: they stay in the table but no longer
	// occupy their slot.
	StateCancelled State = "CANCELLED"
)

// Terminal reports whether no further transition may leave the state.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateCancelled
}

// Reservation is a hold on one (date, time) slot by one owner.
//
// The partial unique index over (date, time) enforces the core invariant:
// at most one non-CANCELLED reservation per slot, atomically with insert.
type Reservation struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Owner          string    `gorm:"size:64;not null;index" json:"owner"`
	Date           string    `gorm:"size:10;not null;index:idx_slot_active,unique,where:state <> 'CANCELLED'" json:"date"` // YYYY-MM-DD
	Time           string    `gorm:"size:5;not null;index:idx_slot_active,unique,where:state <> 'CANCELLED'" json:"time"`  // HH:MM
	Duration       int       `gorm:"not null" json:"duration"` // minutes, advisory only
	Amount         int64     `gorm:"not null" json:"amount"`   // provider minor unit
	OrderReference string    `gorm:"size:36;not null;uniqueIndex" json:"order_reference"`
	State          State     `gorm:"size:16;not null;default:PENDING" json:"state"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"-"`
}

// NewReservation builds a PENDING reservation with a fresh ID and order
// reference. It does not touch the database.
func NewReservation(date, timeLabel, owner string, duration int, amount int64) *Reservation {
	return &Reservation{
		ID:             uuid.NewString(),
		Owner:          owner,
		Date:           date,
		Time:           timeLabel,
		Duration:       duration,
		Amount:         amount,
		OrderReference: uuid.NewString(),
		State:          StatePending,
	}
}
