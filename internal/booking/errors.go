package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotConflict is returned by Reserve when an active reservation
	// already occupies the requested slot.
	ErrSlotConflict = errors.New("slot already booked")

	// ErrNotFound is returned when the reservation does not exist.
	ErrNotFound = errors.New("reservation not found")

	// ErrNotAuthorized is returned by Cancel when the caller is not the
	// reservation's owner.
	ErrNotAuthorized = errors.New("not authorized for this reservation")

	// ErrInvalidState is returned by Cancel when the reservation is no
	// longer PENDING.
	ErrInvalidState = errors.New("reservation is not cancellable in its current state")
)

// ValidationError reports malformed or missing input. The request is
// rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
