package booking

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"

	"slot-booking-backend/internal/logger"
	"slot-booking-backend/internal/model"
	"slot-booking-backend/internal/payment"
	"slot-booking-backend/internal/store"
)

// Notifier is told about reservations that reached CONFIRMED so owners can
// be informed out of band. A nil Notifier disables notifications.
type Notifier interface {
	ReservationConfirmed(reservationID string)
}

// Reconciler resolves PENDING reservations to a terminal state from the two
// provider signals: the push callback and the pull status check. Both paths
// go through the store's compare-and-swap, so they can run concurrently and
// be replayed arbitrarily; at most one transition ever takes effect.
type Reconciler struct {
	store    store.Store
	gateway  payment.Gateway
	notifier Notifier
}

// NewReconciler creates a reconciliation handler.
func NewReconciler(s store.Store, gw payment.Gateway, n Notifier) *Reconciler {
	return &Reconciler{store: s, gateway: gw, notifier: n}
}

// callbackEnvelope is the transport wrapper some providers use: a base64
// encoded JSON document in the "response" field.
type callbackEnvelope struct {
	Response string `json:"response"`
}

// callbackPayload is the decoded settlement notification.
type callbackPayload struct {
	Code string `json:"code"`
	Data struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
	} `json:"data"`
}

const callbackSuccessCode = "PAYMENT_SUCCESS"

// CallbackOutcome reports what the callback said, for rendering the outcome
// page. Confirmed tells whether this invocation moved the reservation to
// CONFIRMED; Success merely reflects the payload.
type CallbackOutcome struct {
	Success       bool
	Confirmed     bool
	ReservationID string
}

// HandleCallback consumes a provider settlement notification. It never
// fails toward the provider: malformed payloads and unknown order
// references are logged and absorbed, since an error response would only
// provoke retry storms for a notification we cannot act on anyway.
// Non-success codes leave the reservation PENDING for the pull path to
// resolve, because providers also push intermediate notifications.
func (rc *Reconciler) HandleCallback(ctx context.Context, body []byte) CallbackOutcome {
	payload, err := decodeCallback(body)
	if err != nil {
		logger.Log.Warnf("discarding undecodable payment callback: %v", err)
		return CallbackOutcome{}
	}

	if payload.Code != callbackSuccessCode {
		logger.Log.Infof("payment callback with code %q for order %q, leaving reservation for status poll", payload.Code, payload.Data.MerchantTransactionID)
		return CallbackOutcome{}
	}

	ref := payload.Data.MerchantTransactionID
	r, err := rc.store.FindByOrderReference(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The provider may retry or replay; an unknown reference is
			// not our error to report.
			logger.Log.Warnf("payment callback for unknown order reference %q, ignoring", ref)
			return CallbackOutcome{Success: true}
		}
		logger.Log.Errorf("callback lookup for order %q failed: %v", ref, err)
		return CallbackOutcome{Success: true}
	}

	err = rc.store.Transition(ctx, r.ID, model.StatePending, model.StateConfirmed)
	switch {
	case err == nil:
		logger.Log.Infof("reservation %s confirmed via callback (order %s)", r.ID, ref)
		rc.notifyConfirmed(r.ID)
		return CallbackOutcome{Success: true, Confirmed: true, ReservationID: r.ID}
	case errors.Is(err, store.ErrStaleState):
		// Already resolved by a competing signal. Not an error.
		return CallbackOutcome{Success: true, ReservationID: r.ID}
	default:
		logger.Log.Errorf("callback transition for reservation %s failed: %v", r.ID, err)
		return CallbackOutcome{Success: true, ReservationID: r.ID}
	}
}

// StatusResult pairs the reservation's state with the provider's view of
// the payment.
type StatusResult struct {
	ReservationState model.State    `json:"reservation_state"`
	ProviderState    payment.Status `json:"provider_state"`
}

// CheckStatus actively queries the gateway for the reservation's order and
// applies the outcome: provider success confirms, explicit provider failure
// cancels, anything in flight mutates nothing. Losing the transition race
// means another signal settled the reservation first and is silently fine.
func (rc *Reconciler) CheckStatus(ctx context.Context, reservationID string) (*StatusResult, error) {
	r, err := rc.store.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	providerState, err := rc.gateway.Check(ctx, r.OrderReference)
	if err != nil {
		return nil, err
	}

	switch providerState {
	case payment.StatusSuccess:
		err = rc.store.Transition(ctx, r.ID, model.StatePending, model.StateConfirmed)
		if err == nil {
			logger.Log.Infof("reservation %s confirmed via status poll", r.ID)
			rc.notifyConfirmed(r.ID)
		}
	case payment.StatusFailed:
		err = rc.store.Transition(ctx, r.ID, model.StatePending, model.StateCancelled)
		if err == nil {
			logger.Log.Infof("reservation %s cancelled after provider reported failure", r.ID)
		}
	case payment.StatusPending:
		err = nil
	}
	if err != nil && !errors.Is(err, store.ErrStaleState) {
		return nil, err
	}

	current, err := rc.store.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{ReservationState: current.State, ProviderState: providerState}, nil
}

func (rc *Reconciler) notifyConfirmed(reservationID string) {
	if rc.notifier != nil {
		rc.notifier.ReservationConfirmed(reservationID)
	}
}

// decodeCallback unwraps the optional base64 envelope and parses the
// settlement payload.
func decodeCallback(body []byte) (*callbackPayload, error) {
	raw := body

	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Response != "" {
		decoded, err := base64.StdEncoding.DecodeString(env.Response)
		if err != nil {
			return nil, err
		}
		raw = decoded
	}

	var payload callbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
