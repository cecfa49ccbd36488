package billing

import (
	"time"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"
)

type Subscription struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"-"`
	StripeCustomerID     string    `json:"-"`
	StripeSubscriptionID string    `json:"-"`
	PlanName             string    `json:"plan_name"`
	Status               string    `json:"status"`
	CurrentPeriodEnd     time.Time `json:"current_period_end"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (s *Subscription) IsActive(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.Status == SubscriptionStatusActive && now.Before(s.CurrentPeriodEnd)
}

// PaymentRecord stores one settled Stripe payment. StripeEventID carries the
// originating webhook event ID so redelivered events never double-insert.
type PaymentRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	StripeEventID string    `json:"-"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	Description   string    `json:"description"`
	PaidAt        time.Time `json:"paid_at"`
}
