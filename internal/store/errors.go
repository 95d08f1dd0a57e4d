package store

import "errors"

var (
	// ErrSlotTaken is returned by Create when an active reservation already
	// occupies the (date, time) slot.
	ErrSlotTaken = errors.New("slot already has an active reservation")

	// ErrNotFound is returned when no reservation matches the lookup.
	ErrNotFound = errors.New("reservation not found")

	// ErrStaleState is returned by Transition when the reservation was not
	// in the expected prior state. Callers treat it as "someone else
	// already resolved this", never as a failure to surface.
	ErrStaleState = errors.New("reservation not in expected state")
)
