package billing

import (
	"context"
	"sync"
	"time"

	emailService "github.com/sebuszqo/ExpenseFlow/internal/email"
	"github.com/sebuszqo/ExpenseFlow/internal/user"
)

type mockRepository struct {
	mu            sync.Mutex
	subscriptions map[string]*Subscription
	payments      []PaymentRecord
	seenEvents    map[string]bool
	clicks        map[string]int
	apiKeys       map[string]string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		subscriptions: make(map[string]*Subscription),
		seenEvents:    make(map[string]bool),
		clicks:        make(map[string]int),
		apiKeys:       make(map[string]string),
	}
}

func (m *mockRepository) UpsertSubscription(_ context.Context, sub *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.ID = "sub-" + sub.UserID
	m.subscriptions[sub.UserID] = sub
	return nil
}

func (m *mockRepository) GetSubscriptionByUserID(_ context.Context, userID string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscriptions[userID], nil
}

func (m *mockRepository) GetUserIDByStripeCustomer(_ context.Context, stripeCustomerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, sub := range m.subscriptions {
		if sub.StripeCustomerID == stripeCustomerID {
			return userID, nil
		}
	}
	return "", ErrUnknownStripeCustomer
}

func (m *mockRepository) UpdateSubscriptionStatus(_ context.Context, stripeSubscriptionID, status string, currentPeriodEnd time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subscriptions {
		if sub.StripeSubscriptionID == stripeSubscriptionID {
			sub.Status = status
			sub.CurrentPeriodEnd = currentPeriodEnd
		}
	}
	return nil
}

func (m *mockRepository) MarkExpiredSubscriptions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired int64
	for _, sub := range m.subscriptions {
		if sub.Status == SubscriptionStatusActive && sub.CurrentPeriodEnd.Before(now) {
			sub.Status = SubscriptionStatusExpired
			expired++
		}
	}
	return expired, nil
}

func (m *mockRepository) InsertPaymentRecord(_ context.Context, record *PaymentRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seenEvents[record.StripeEventID] {
		return false, nil
	}
	m.seenEvents[record.StripeEventID] = true
	record.ID = "payment-" + record.StripeEventID
	m.payments = append(m.payments, *record)
	return true, nil
}

func (m *mockRepository) ListPaymentsByUser(_ context.Context, userID string) ([]PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []PaymentRecord
	for _, record := range m.payments {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *mockRepository) IncrementClickCount(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks[userID]++
	return m.clicks[userID], nil
}

func (m *mockRepository) GetClickCount(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clicks[userID], nil
}

func (m *mockRepository) UpsertPaymentAPIKey(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys[name] = value
	return nil
}

func (m *mockRepository) GetPaymentAPIKeys(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make(map[string]string, len(m.apiKeys))
	for name, value := range m.apiKeys {
		keys[name] = value
	}
	return keys, nil
}

type mockUsers struct{}

func (mockUsers) GetUserByID(userID string) (*user.User, error) {
	return &user.User{
		ID:    userID,
		Email: userID + "@example.com",
		Login: "user-" + userID,
	}, nil
}

type queuedEmail struct {
	to   string
	data emailService.EmailData
}

type mockEmailSender struct {
	mu     sync.Mutex
	queued []queuedEmail
}

func (m *mockEmailSender) QueueEmail(to string, data emailService.EmailData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, queuedEmail{to: to, data: data})
}
