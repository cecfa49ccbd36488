package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v78"
)

func newTestService(limit int) (Service, *mockRepository, *mockEmailSender) {
	repo := newMockRepository()
	emails := &mockEmailSender{}
	svc := NewService(repo, mockUsers{}, emails, Config{
		SecretKey:      "sk_test_123",
		PublishableKey: "pk_test_123",
		WebhookSecret:  "whsec_test",
		PriceID:        "price_123",
		PlanName:       "Premium",
		SuccessURL:     "https://app.example.com/billing/success",
		CancelURL:      "https://app.example.com/billing/cancel",
		FreeClickLimit: limit,
	})
	return svc, repo, emails
}

func stripeEvent(t *testing.T, eventID, eventType string, object interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	assert.NoError(t, err)
	return stripe.Event{
		ID:   eventID,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestRegisterClick_RefusesOverFreeLimit(t *testing.T) {
	svc, repo, _ := newTestService(3)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		status, err := svc.RegisterClick(ctx, "user-1")
		assert.NoError(t, err)
		assert.Equal(t, i, status.Count)
		assert.Equal(t, 3-i, status.Remaining)
	}

	_, err := svc.RegisterClick(ctx, "user-1")
	assert.ErrorIs(t, err, ErrClickLimitReached)

	count, err := repo.GetClickCount(ctx, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, 3, count, "refused click must not move the counter")
}

func TestRegisterClick_SubscribersAreNotLimited(t *testing.T) {
	svc, repo, _ := newTestService(2)
	ctx := context.Background()

	err := repo.UpsertSubscription(ctx, &Subscription{
		UserID:           "user-1",
		Status:           SubscriptionStatusActive,
		CurrentPeriodEnd: time.Now().Add(24 * time.Hour),
	})
	assert.NoError(t, err)

	for i := 1; i <= 10; i++ {
		status, err := svc.RegisterClick(ctx, "user-1")
		assert.NoError(t, err)
		assert.Equal(t, i, status.Count)
		assert.Equal(t, -1, status.Remaining, "subscribers are never limited")
	}
}

func TestRegisterClick_ExpiredSubscriptionFallsBackToFreeTier(t *testing.T) {
	svc, repo, _ := newTestService(1)
	ctx := context.Background()

	err := repo.UpsertSubscription(ctx, &Subscription{
		UserID:           "user-1",
		Status:           SubscriptionStatusActive,
		CurrentPeriodEnd: time.Now().Add(-time.Hour),
	})
	assert.NoError(t, err)

	_, err = svc.RegisterClick(ctx, "user-1")
	assert.NoError(t, err)
	_, err = svc.RegisterClick(ctx, "user-1")
	assert.ErrorIs(t, err, ErrClickLimitReached)
}

func TestHandleEvent_CheckoutCompletedActivatesSubscription(t *testing.T) {
	svc, repo, emails := newTestService(10)
	ctx := context.Background()

	event := stripeEvent(t, "evt_1", "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_123",
		"client_reference_id": "user-1",
		"customer":            map[string]interface{}{"id": "cus_123"},
		"subscription":        map[string]interface{}{"id": "sub_123"},
		"amount_total":        999,
		"currency":            "usd",
	})

	err := svc.HandleEvent(ctx, event)
	assert.NoError(t, err)

	sub, err := repo.GetSubscriptionByUserID(ctx, "user-1")
	assert.NoError(t, err)
	assert.NotNil(t, sub)
	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "cus_123", sub.StripeCustomerID)
	assert.Equal(t, "sub_123", sub.StripeSubscriptionID)

	payments, err := svc.GetPaymentHistory(ctx, "user-1")
	assert.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, int64(999), payments[0].AmountCents)

	assert.Len(t, emails.queued, 1)
	assert.Equal(t, "user-1@example.com", emails.queued[0].to)
}

func TestHandleEvent_RedeliveredEventRecordsPaymentOnce(t *testing.T) {
	svc, _, emails := newTestService(10)
	ctx := context.Background()

	event := stripeEvent(t, "evt_dup", "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_123",
		"client_reference_id": "user-1",
		"customer":            map[string]interface{}{"id": "cus_123"},
		"amount_total":        999,
		"currency":            "usd",
	})

	assert.NoError(t, svc.HandleEvent(ctx, event))
	assert.NoError(t, svc.HandleEvent(ctx, event))

	payments, err := svc.GetPaymentHistory(ctx, "user-1")
	assert.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Len(t, emails.queued, 1)
}

func TestHandleEvent_InvoicePaidRecordsRenewal(t *testing.T) {
	svc, repo, _ := newTestService(10)
	ctx := context.Background()

	err := repo.UpsertSubscription(ctx, &Subscription{
		UserID:               "user-1",
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: "sub_123",
		Status:               SubscriptionStatusActive,
		CurrentPeriodEnd:     time.Now().Add(24 * time.Hour),
	})
	assert.NoError(t, err)

	nextPeriodEnd := time.Now().AddDate(0, 1, 0).UTC().Truncate(time.Second)
	event := stripeEvent(t, "evt_inv", "invoice.paid", map[string]interface{}{
		"id":           "in_123",
		"customer":     map[string]interface{}{"id": "cus_123"},
		"subscription": map[string]interface{}{"id": "sub_123"},
		"amount_paid":  999,
		"currency":     "usd",
		"lines": map[string]interface{}{
			"data": []map[string]interface{}{
				{"period": map[string]interface{}{"end": nextPeriodEnd.Unix()}},
			},
		},
	})

	assert.NoError(t, svc.HandleEvent(ctx, event))

	payments, err := svc.GetPaymentHistory(ctx, "user-1")
	assert.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, "Subscription renewal", payments[0].Description)

	sub, err := repo.GetSubscriptionByUserID(ctx, "user-1")
	assert.NoError(t, err)
	assert.True(t, sub.CurrentPeriodEnd.Equal(nextPeriodEnd), "paid invoice extends the period")
}

func TestHandleEvent_InvoicePaidForUnknownCustomerFails(t *testing.T) {
	svc, _, _ := newTestService(10)

	event := stripeEvent(t, "evt_inv", "invoice.paid", map[string]interface{}{
		"id":       "in_123",
		"customer": map[string]interface{}{"id": "cus_missing"},
	})

	err := svc.HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, ErrUnknownStripeCustomer)
}

func TestHandleEvent_SubscriptionDeletedCancels(t *testing.T) {
	svc, repo, _ := newTestService(10)
	ctx := context.Background()

	err := repo.UpsertSubscription(ctx, &Subscription{
		UserID:               "user-1",
		StripeSubscriptionID: "sub_123",
		Status:               SubscriptionStatusActive,
		CurrentPeriodEnd:     time.Now().Add(24 * time.Hour),
	})
	assert.NoError(t, err)

	periodEnd := time.Now().Unix()
	event := stripeEvent(t, "evt_del", "customer.subscription.deleted", map[string]interface{}{
		"id":                 "sub_123",
		"status":             "canceled",
		"current_period_end": periodEnd,
	})

	assert.NoError(t, svc.HandleEvent(ctx, event))

	sub, err := repo.GetSubscriptionByUserID(ctx, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, SubscriptionStatusCanceled, sub.Status)
}

func TestHandleEvent_IgnoresUnknownEventTypes(t *testing.T) {
	svc, _, _ := newTestService(10)
	event := stripe.Event{
		ID:   "evt_noop",
		Type: "payment_method.attached",
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	assert.NoError(t, svc.HandleEvent(context.Background(), event))
}

func TestExpireOverdueSubscriptions(t *testing.T) {
	svc, repo, _ := newTestService(10)
	ctx := context.Background()

	for i, periodEnd := range []time.Time{
		time.Now().Add(-time.Hour),
		time.Now().Add(24 * time.Hour),
	} {
		err := repo.UpsertSubscription(ctx, &Subscription{
			UserID:           fmt.Sprintf("user-%d", i),
			Status:           SubscriptionStatusActive,
			CurrentPeriodEnd: periodEnd,
		})
		assert.NoError(t, err)
	}

	expired, err := svc.ExpireOverdueSubscriptions(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	stillActive, err := repo.GetSubscriptionByUserID(ctx, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, SubscriptionStatusActive, stillActive.Status)
}

func TestSyncAPIKeys_PublicConfigReadsStoredKeys(t *testing.T) {
	svc, repo, _ := newTestService(5)
	ctx := context.Background()

	assert.NoError(t, svc.SyncAPIKeys(ctx))
	assert.Equal(t, "pk_test_123", repo.apiKeys["publishable_key"])
	assert.Equal(t, "price_123", repo.apiKeys["price_id"])

	// A key rotated directly in storage wins over the configured value.
	assert.NoError(t, repo.UpsertPaymentAPIKey(ctx, "publishable_key", "pk_rotated"))

	config, err := svc.PublicConfig(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "pk_rotated", config["publishable_key"])
	assert.Equal(t, "price_123", config["price_id"])
	assert.Equal(t, "Premium", config["plan_name"])
	assert.Equal(t, 5, config["free_click_limit"])
}
