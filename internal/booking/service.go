package booking

import (
	"context"
	"errors"
	"time"

	"slot-booking-backend/config"
	"slot-booking-backend/internal/logger"
	"slot-booking-backend/internal/model"
	"slot-booking-backend/internal/payment"
	"slot-booking-backend/internal/store"
)

// SlotStatus describes one grid slot from a particular viewer's
// perspective.
type SlotStatus string

const (
	SlotAvailable      SlotStatus = "AVAILABLE"
	SlotBookedByOthers SlotStatus = "BOOKED_BY_OTHERS"
	SlotBookedByMe     SlotStatus = "BOOKED_BY_ME"
	SlotPaymentPending SlotStatus = "PAYMENT_PENDING"
)

// SlotView is one entry of the availability listing.
type SlotView struct {
	Time          string     `json:"time"`
	Status        SlotStatus `json:"status"`
	ReservationID string     `json:"reservation_id,omitempty"`
}

// ReserveResult is the outcome of a successful reservation: the PENDING
// record and the provider URL the client is redirected to for payment.
type ReserveResult struct {
	Reservation     *model.Reservation `json:"reservation"`
	PaymentRedirect string             `json:"payment_redirect"`
}

// Service orchestrates slot availability, reservation creation and
// cancellation against the store and the payment gateway port.
type Service struct {
	store   store.Store
	gateway payment.Gateway
	grid    config.GridConfig
}

// NewService creates a reservation service. The gateway is an injected
// capability, never constructed inside the service.
func NewService(s store.Store, gw payment.Gateway, grid config.GridConfig) *Service {
	return &Service{store: s, gateway: gw, grid: grid}
}

// ListSlots returns one entry per grid time, in grid order, with the status
// derived for the given viewer. Read-only.
func (s *Service) ListSlots(ctx context.Context, date, viewer string) ([]SlotView, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	reservations, err := s.store.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	byTime := make(map[string]model.Reservation, len(reservations))
	for _, r := range reservations {
		byTime[r.Time] = r
	}

	views := make([]SlotView, 0, s.grid.EndHour-s.grid.StartHour)
	for _, t := range s.grid.Times() {
		view := SlotView{Time: t, Status: SlotAvailable}
		if r, ok := byTime[t]; ok {
			switch {
			case r.Owner != viewer:
				view.Status = SlotBookedByOthers
			case r.State == model.StateConfirmed:
				view.Status = SlotBookedByMe
				view.ReservationID = r.ID
			default:
				view.Status = SlotPaymentPending
				view.ReservationID = r.ID
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Reserve places a provisional hold on the slot and initiates payment for
// it. Creation and initiation form one compensatable unit: when the gateway
// rejects the payment the provisional reservation is released again, so a
// payment the provider never saw cannot occupy a slot.
func (s *Service) Reserve(ctx context.Context, date, timeLabel, owner string, duration int, amount int64) (*ReserveResult, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, &ValidationError{Field: "owner", Reason: "required"}
	}
	if duration <= 0 {
		return nil, &ValidationError{Field: "duration", Reason: "must be a positive number of minutes"}
	}
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if !s.onGrid(timeLabel) {
		return nil, &ValidationError{Field: "time", Reason: "not a bookable slot time"}
	}

	r := model.NewReservation(date, timeLabel, owner, duration, amount)
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	logger.Log.Infof("reservation %s created for slot %s %s (order %s)", r.ID, date, timeLabel, r.OrderReference)

	redirect, err := s.gateway.Initiate(ctx, r.OrderReference, amount, owner)
	if err != nil {
		logger.Log.Errorf("payment initiation failed for reservation %s, releasing slot: %v", r.ID, err)
		if rbErr := s.store.Transition(ctx, r.ID, model.StatePending, model.StateCancelled); rbErr != nil && !errors.Is(rbErr, store.ErrStaleState) {
			logger.Log.Errorf("failed to release reservation %s after gateway error: %v", r.ID, rbErr)
		}
		return nil, err
	}

	return &ReserveResult{Reservation: r, PaymentRedirect: redirect}, nil
}

// Cancel tombstones a PENDING reservation owned by the caller, freeing its
// slot. Confirmed reservations are not cancellable through this path.
func (s *Service) Cancel(ctx context.Context, id, owner string) error {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if r.Owner != owner {
		return ErrNotAuthorized
	}

	err = s.store.Transition(ctx, id, model.StatePending, model.StateCancelled)
	if errors.Is(err, store.ErrStaleState) {
		return ErrInvalidState
	}
	if err != nil {
		return err
	}
	logger.Log.Infof("reservation %s cancelled by owner, slot %s %s released", id, r.Date, r.Time)
	return nil
}

func (s *Service) onGrid(timeLabel string) bool {
	for _, t := range s.grid.Times() {
		if t == timeLabel {
			return true
		}
	}
	return false
}

func validateDate(date string) error {
	if date == "" {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return nil
}
