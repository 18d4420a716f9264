package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"wallet_info/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testWebhookConfig() *config.Config {
	return &config.Config{
		Webhooks: config.WebhookConfig{
			DeliveryTimeoutMillis: 2000,
			MaxLogs:               100,
		},
	}
}

// receivedRequest captures one delivery seen by the test endpoint.
type receivedRequest struct {
	event     string
	secret    string
	signature string
	body      []byte
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []receivedRequest) {
	t.Helper()
	var mu sync.Mutex
	var received []receivedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, receivedRequest{
			event:     r.Header.Get("X-Webhook-Event"),
			secret:    r.Header.Get("X-Webhook-Secret"),
			signature: r.Header.Get("X-Webhook-Signature"),
			body:      body,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []receivedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]receivedRequest(nil), received...)
	}
}

func TestDeliverRespectsEventFilter(t *testing.T) {
	srv, received := newCaptureServer(t)
	svc := NewWebhookService(testWebhookConfig(), zap.NewNop())

	webhookID := svc.Register(srv.URL, "", []string{"transaction.confirmed"},
		[]string{"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}, nil)

	// Matching address but non-subscribed event: no delivery.
	attempted, err := svc.Deliver(context.Background(), webhookID, "transaction.failed",
		map[string]interface{}{"address": "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"})
	require.NoError(t, err)
	assert.False(t, attempted)
	assert.Empty(t, received())

	// Subscribed event with a differently-cased matching address: delivers.
	attempted, err = svc.Deliver(context.Background(), webhookID, "transaction.confirmed",
		map[string]interface{}{"address": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.NoError(t, err)
	assert.True(t, attempted)
	require.Len(t, received(), 1)
	assert.Equal(t, "transaction.confirmed", received()[0].event)
}

func TestDeliverWildcardEventAndNetworkFilter(t *testing.T) {
	srv, received := newCaptureServer(t)
	svc := NewWebhookService(testWebhookConfig(), zap.NewNop())

	webhookID := svc.Register(srv.URL, "", []string{"*"}, nil, []int64{8453})

	attempted, err := svc.Deliver(context.Background(), webhookID, "transaction.confirmed",
		map[string]interface{}{"networkId": int64(1)})
	require.NoError(t, err)
	assert.False(t, attempted)

	attempted, err = svc.Deliver(context.Background(), webhookID, "anything.at.all",
		map[string]interface{}{"networkId": float64(8453)})
	require.NoError(t, err)
	assert.True(t, attempted)
	require.Len(t, received(), 1)
}

func TestDeliverSignsBodyWithSecret(t *testing.T) {
	srv, received := newCaptureServer(t)
	svc := NewWebhookService(testWebhookConfig(), zap.NewNop())

	webhookID := svc.Register(srv.URL, "hunter2", nil, nil, nil)
	attempted, err := svc.Deliver(context.Background(), webhookID, "transaction.confirmed",
		map[string]interface{}{"hash": "0xabc"})
	require.NoError(t, err)
	require.True(t, attempted)

	reqs := received()
	require.Len(t, reqs, 1)
	assert.Equal(t, "hunter2", reqs[0].secret)

	mac := hmac.New(sha256.New, []byte("hunter2"))
	mac.Write(reqs[0].body)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), reqs[0].signature)
}

func TestRegisterDeduplicatesAddressFilter(t *testing.T) {
	srv, received := newCaptureServer(t)
	svc := NewWebhookService(testWebhookConfig(), zap.NewNop())

	webhookID := svc.Register(srv.URL, "", nil, []string{
		"0xAbCAbCAbCAbCAbCAbCAbCAbCAbCAbCAbCAbCAbCA",
		"0xABCABCABCABCABCABCABCABCABCABCABCABCABCA",
		"0x5555555555555555555555555555555555555555",
	}, nil)

	regs := svc.Registrations()
	require.Len(t, regs, 1)
	// First casing wins; the case-variant duplicate collapses.
	assert.Equal(t, []string{
		"0xAbCAbCAbCAbCAbCAbCAbCAbCAbCAbCAbCAbCAbCA",
		"0x5555555555555555555555555555555555555555",
	}, regs[0].Addresses)

	attempted, err := svc.Deliver(context.Background(), webhookID, "transaction.confirmed",
		map[string]interface{}{"address": "0xabcabcabcabcabcabcabcabcabcabcabcabcabca"})
	require.NoError(t, err)
	assert.True(t, attempted)
	require.Len(t, received(), 1)
}

func TestTriggerFansOutToMatchingRegistrations(t *testing.T) {
	srv, received := newCaptureServer(t)
	svc := NewWebhookService(testWebhookConfig(), zap.NewNop())

	svc.Register(srv.URL, "", []string{"transaction.confirmed"}, nil, nil)
	svc.Register(srv.URL, "", []string{"batch.completed"}, nil, nil)
	svc.Register(srv.URL, "", nil, nil, nil) // unrestricted

	svc.Trigger(context.Background(), "transaction.confirmed", map[string]interface{}{"hash": "0x1"})

	assert.Len(t, received(), 2)
}

func TestTestDeliveryBypassesFilters(t *testing.T) {
	srv, received := newCaptureServer(t)
	svc := NewWebhookService(testWebhookConfig(), zap.NewNop())

	webhookID := svc.Register(srv.URL, "", []string{"transaction.confirmed"},
		[]string{"0x4444444444444444444444444444444444444444"}, []int64{1})

	require.NoError(t, svc.Test(context.Background(), webhookID))
	reqs := received()
	require.Len(t, reqs, 1)
	assert.Equal(t, "webhook.test", reqs[0].event)
}

func TestLogsBoundedAtConfiguredCap(t *testing.T) {
	srv, _ := newCaptureServer(t)
	svc := NewWebhookService(testWebhookConfig(), zap.NewNop())

	webhookID := svc.Register(srv.URL, "", nil, nil, nil)
	for i := 0; i < 105; i++ {
		_, err := svc.Deliver(context.Background(), webhookID, "transaction.confirmed",
			map[string]interface{}{"seq": i})
		require.NoError(t, err)
	}

	logs := svc.Logs(0)
	assert.Len(t, logs, 100)
	// Oldest entries are evicted.
	assert.Equal(t, 5, logs[0].Payload["seq"])

	assert.Len(t, svc.Logs(50), 50)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	srv, received := newCaptureServer(t)
	svc := NewWebhookService(testWebhookConfig(), zap.NewNop())

	webhookID := svc.Register(srv.URL, "", nil, nil, nil)
	require.True(t, svc.Unregister(webhookID))
	assert.False(t, svc.Unregister(webhookID))

	_, err := svc.Deliver(context.Background(), webhookID, "transaction.confirmed", nil)
	assert.Error(t, err)
	assert.Empty(t, received())
}

func TestDeliverRecordsFailedOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	svc := NewWebhookService(testWebhookConfig(), zap.NewNop())
	webhookID := svc.Register(srv.URL, "", nil, nil, nil)

	attempted, err := svc.Deliver(context.Background(), webhookID, "transaction.confirmed", nil)
	assert.True(t, attempted)
	assert.Error(t, err)

	logs := svc.Logs(1)
	require.Len(t, logs, 1)
	assert.Equal(t, "failed", logs[0].Status)
	assert.NotEmpty(t, logs[0].Error)
}
