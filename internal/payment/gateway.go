package payment

import (
	"context"
	"fmt"
)

// Status is the three-valued settlement state the core understands. The
// mapping from any concrete provider's vocabulary happens inside the
// adapter, never in the reservation or reconciliation code.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

// Gateway is the payment provider port. Initiate starts a payment for the
// given order reference and returns the URL the client is redirected to;
// Check queries the provider for the current settlement state of the
// reference. Implementations must be safe for concurrent use and Check must
// be idempotent.
type Gateway interface {
	Initiate(ctx context.Context, orderRef string, amount int64, owner string) (string, error)
	Check(ctx context.Context, orderRef string) (Status, error)
}

// GatewayError wraps a provider failure. Reservation creation compensates
// (releases the slot) before reporting one of these to the caller.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
