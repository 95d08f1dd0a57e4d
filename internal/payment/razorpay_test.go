package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLinkAPI struct {
	createData map[string]interface{}
	createResp map[string]interface{}
	createErr  error
	allData    map[string]interface{}
	allResp    map[string]interface{}
	allErr     error
}

func (f *fakeLinkAPI) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.createData = data
	return f.createResp, f.createErr
}

func (f *fakeLinkAPI) All(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.allData = data
	return f.allResp, f.allErr
}

func TestInitiate_CreatesPaymentLink(t *testing.T) {
	api := &fakeLinkAPI{createResp: map[string]interface{}{"short_url": "https://rzp.io/i/abc123"}}
	gw := &RazorpayGateway{links: api, currency: "INR", callback: "https://booking.example/api/payments/callback"}

	url, err := gw.Initiate(context.Background(), "order-1", 15000, "alice")
	require.NoError(t, err)
	assert.Equal(t, "https://rzp.io/i/abc123", url)

	assert.Equal(t, int64(15000), api.createData["amount"])
	assert.Equal(t, "INR", api.createData["currency"])
	assert.Equal(t, "order-1", api.createData["reference_id"])
	assert.Equal(t, "https://booking.example/api/payments/callback", api.createData["callback_url"])
	assert.Equal(t, "get", api.createData["callback_method"])
	notes, ok := api.createData["notes"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alice", notes["owner"])
}

func TestInitiate_NoCallbackConfigured(t *testing.T) {
	api := &fakeLinkAPI{createResp: map[string]interface{}{"short_url": "https://rzp.io/i/abc123"}}
	gw := &RazorpayGateway{links: api, currency: "INR"}

	_, err := gw.Initiate(context.Background(), "order-1", 15000, "alice")
	require.NoError(t, err)
	assert.NotContains(t, api.createData, "callback_url")
	assert.NotContains(t, api.createData, "callback_method")
}

func TestInitiate_Errors(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		api := &fakeLinkAPI{createErr: errors.New("401 unauthorized")}
		gw := &RazorpayGateway{links: api, currency: "INR"}

		_, err := gw.Initiate(context.Background(), "order-1", 15000, "alice")
		var ge *GatewayError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, "initiate", ge.Op)
	})

	t.Run("missing short_url", func(t *testing.T) {
		api := &fakeLinkAPI{createResp: map[string]interface{}{"id": "plink_1"}}
		gw := &RazorpayGateway{links: api, currency: "INR"}

		_, err := gw.Initiate(context.Background(), "order-1", 15000, "alice")
		var ge *GatewayError
		assert.ErrorAs(t, err, &ge)
	})
}

func TestCheck_LooksUpByReference(t *testing.T) {
	api := &fakeLinkAPI{allResp: map[string]interface{}{
		"payment_links": []interface{}{
			map[string]interface{}{"status": "paid"},
		},
	}}
	gw := &RazorpayGateway{links: api, currency: "INR"}

	status, err := gw.Check(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, "order-1", api.allData["reference_id"])
}

func TestCheck_Errors(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		api := &fakeLinkAPI{allErr: errors.New("timeout")}
		gw := &RazorpayGateway{links: api, currency: "INR"}

		_, err := gw.Check(context.Background(), "order-1")
		var ge *GatewayError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, "check", ge.Op)
	})

	t.Run("no link for reference", func(t *testing.T) {
		api := &fakeLinkAPI{allResp: map[string]interface{}{"payment_links": []interface{}{}}}
		gw := &RazorpayGateway{links: api, currency: "INR"}

		_, err := gw.Check(context.Background(), "order-1")
		var ge *GatewayError
		assert.ErrorAs(t, err, &ge)
	})
}

func TestMapLinkStatus(t *testing.T) {
	cases := map[string]Status{
		"paid":           StatusSuccess,
		"expired":        StatusFailed,
		"cancelled":      StatusFailed,
		"created":        StatusPending,
		"partially_paid": StatusPending,
		"":               StatusPending,
	}
	for status, want := range cases {
		assert.Equal(t, want, mapLinkStatus(status), "status %q", status)
	}
}

func TestGatewayError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &GatewayError{Op: "check", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "check")
}
