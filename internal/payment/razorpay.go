package payment

import (
	"context"
	"fmt"

	"github.com/razorpay/razorpay-go"

	"slot-booking-backend/config"
)

// paymentLinkAPI is the slice of the Razorpay SDK the adapter needs. The
// indirection keeps the adapter testable without provider credentials.
type paymentLinkAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	All(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway implements Gateway on top of Razorpay Payment Links. A
// link is created per order reference (reference_id on the provider side)
// and its short URL is the redirect target.
type RazorpayGateway struct {
	links    paymentLinkAPI
	currency string
	callback string
}

// NewRazorpayGateway builds a gateway adapter from the configured
// credentials.
func NewRazorpayGateway(cfg *config.GatewayConfig) *RazorpayGateway {
	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return &RazorpayGateway{
		links:    client.PaymentLink,
		currency: cfg.Currency,
		callback: cfg.CallbackURL,
	}
}

// Initiate creates a payment link for the order reference and returns its
// short URL. The SDK does not take a context; cancellation applies from the
// caller's side only.
func (g *RazorpayGateway) Initiate(_ context.Context, orderRef string, amount int64, owner string) (string, error) {
	data := map[string]interface{}{
		"amount":       amount,
		"currency":     g.currency,
		"reference_id": orderRef,
		"description":  "Slot reservation",
		"notes": map[string]interface{}{
			"owner": owner,
		},
	}
	if g.callback != "" {
		data["callback_url"] = g.callback
		data["callback_method"] = "get"
	}

	body, err := g.links.Create(data, nil)
	if err != nil {
		return "", &GatewayError{Op: "initiate", Err: err}
	}

	shortURL, ok := body["short_url"].(string)
	if !ok || shortURL == "" {
		return "", &GatewayError{Op: "initiate", Err: fmt.Errorf("no short_url in payment link response")}
	}
	return shortURL, nil
}

// Check looks the payment link up by reference and maps its status onto the
// port's vocabulary.
func (g *RazorpayGateway) Check(_ context.Context, orderRef string) (Status, error) {
	body, err := g.links.All(map[string]interface{}{"reference_id": orderRef}, nil)
	if err != nil {
		return "", &GatewayError{Op: "check", Err: err}
	}

	items, ok := body["payment_links"].([]interface{})
	if !ok || len(items) == 0 {
		return "", &GatewayError{Op: "check", Err: fmt.Errorf("no payment link for reference %s", orderRef)}
	}
	link, ok := items[0].(map[string]interface{})
	if !ok {
		return "", &GatewayError{Op: "check", Err: fmt.Errorf("malformed payment link entry for reference %s", orderRef)}
	}
	status, _ := link["status"].(string)
	return mapLinkStatus(status), nil
}

// mapLinkStatus folds Razorpay payment link statuses into the port's
// three-valued state. "created" and "partially_paid" are still in flight.
func mapLinkStatus(status string) Status {
	switch status {
	case "paid":
		return StatusSuccess
	case "expired", "cancelled":
		return StatusFailed
	default:
		return StatusPending
	}
}
