package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v78"
)

const testWebhookSecret = "whsec_test"

// signPayload builds the Stripe-Signature header the way Stripe does:
// an HMAC-SHA256 of "<timestamp>.<payload>" keyed with the endpoint secret.
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func webhookPayload(t *testing.T, eventID, eventType string, object interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(object)
	assert.NoError(t, err)
	payload, err := json.Marshal(map[string]interface{}{
		"id":          eventID,
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"data": map[string]interface{}{
			"object": json.RawMessage(raw),
		},
	})
	assert.NoError(t, err)
	return payload
}

func postWebhook(handler *WebhookHandler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	recorder := httptest.NewRecorder()
	handler.HandleWebhook(recorder, req)
	return recorder
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	svc, repo, _ := newTestService(10)
	handler := NewWebhookHandler(svc, testWebhookSecret)

	payload := webhookPayload(t, "evt_1", "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_123",
		"client_reference_id": "user-1",
	})

	recorder := postWebhook(handler, payload, signPayload(payload, "whsec_wrong", time.Now()))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	sub, err := repo.GetSubscriptionByUserID(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestWebhook_RejectsStaleTimestamp(t *testing.T) {
	svc, _, _ := newTestService(10)
	handler := NewWebhookHandler(svc, testWebhookSecret)

	payload := webhookPayload(t, "evt_1", "checkout.session.completed", map[string]interface{}{
		"id": "cs_123",
	})

	recorder := postWebhook(handler, payload, signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestWebhook_ValidSignatureActivatesSubscription(t *testing.T) {
	svc, repo, _ := newTestService(10)
	handler := NewWebhookHandler(svc, testWebhookSecret)

	payload := webhookPayload(t, "evt_1", "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_123",
		"client_reference_id": "user-1",
		"customer":            map[string]interface{}{"id": "cus_123"},
		"subscription":        map[string]interface{}{"id": "sub_123"},
		"amount_total":        999,
		"currency":            "usd",
	})

	recorder := postWebhook(handler, payload, signPayload(payload, testWebhookSecret, time.Now()))
	assert.Equal(t, http.StatusOK, recorder.Code)

	sub, err := repo.GetSubscriptionByUserID(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.NotNil(t, sub)
	assert.Equal(t, SubscriptionStatusActive, sub.Status)
}

func TestWebhook_FailedEventHandlingReturns500(t *testing.T) {
	svc, _, _ := newTestService(10)
	handler := NewWebhookHandler(svc, testWebhookSecret)

	// invoice.paid for a customer we have no mapping for must fail so
	// Stripe redelivers it later.
	payload := webhookPayload(t, "evt_1", "invoice.paid", map[string]interface{}{
		"id":       "in_123",
		"customer": map[string]interface{}{"id": "cus_missing"},
	})

	recorder := postWebhook(handler, payload, signPayload(payload, testWebhookSecret, time.Now()))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
