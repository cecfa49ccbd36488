package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	emailService "github.com/sebuszqo/ExpenseFlow/internal/email"
	"github.com/sebuszqo/ExpenseFlow/internal/user"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
)

var (
	ErrClickLimitReached     = errors.New("free click limit reached")
	ErrUnknownStripeCustomer = errors.New("unknown stripe customer")
	ErrNoSubscription        = errors.New("no subscription found")
)

// Config carries the Stripe keys and plan settings. Everything here comes
// from the environment, validated at startup.
type Config struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	PriceID        string
	PlanName       string
	SuccessURL     string
	CancelURL      string
	FreeClickLimit int
}

type UserInfoProvider interface {
	GetUserByID(userID string) (*user.User, error)
}

// ClickStatus reports the free-tier position after a registered click.
// Remaining is -1 for subscribed users, who are never limited.
type ClickStatus struct {
	Count     int `json:"click_count"`
	Remaining int `json:"remaining"`
}

type Service interface {
	CreateCheckoutSession(ctx context.Context, userID string) (string, error)
	GetSubscription(ctx context.Context, userID string) (*Subscription, error)
	GetPaymentHistory(ctx context.Context, userID string) ([]PaymentRecord, error)
	RegisterClick(ctx context.Context, userID string) (*ClickStatus, error)
	HandleEvent(ctx context.Context, event stripe.Event) error
	ExpireOverdueSubscriptions(ctx context.Context) (int64, error)
	SyncAPIKeys(ctx context.Context) error
	PublicConfig(ctx context.Context) (map[string]interface{}, error)
}

type service struct {
	repo         Repository
	users        UserInfoProvider
	emailService emailService.EmailSender
	config       Config
}

func NewService(repo Repository, users UserInfoProvider, emailSender emailService.EmailSender, config Config) Service {
	stripe.Key = config.SecretKey
	return &service{
		repo:         repo,
		users:        users,
		emailService: emailSender,
		config:       config,
	}
}

func (s *service) CreateCheckoutSession(ctx context.Context, userID string) (string, error) {
	existingUser, err := s.users.GetUserByID(userID)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.config.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		// ClientReferenceID is how the completed-session webhook finds
		// its way back to our user.
		ClientReferenceID: stripe.String(userID),
		CustomerEmail:     stripe.String(existingUser.Email),
		SuccessURL:        stripe.String(s.config.SuccessURL),
		CancelURL:         stripe.String(s.config.CancelURL),
	}
	params.Context = ctx

	checkoutSession, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("could not create checkout session: %w", err)
	}
	return checkoutSession.URL, nil
}

func (s *service) GetSubscription(ctx context.Context, userID string) (*Subscription, error) {
	return s.repo.GetSubscriptionByUserID(ctx, userID)
}

func (s *service) GetPaymentHistory(ctx context.Context, userID string) ([]PaymentRecord, error) {
	return s.repo.ListPaymentsByUser(ctx, userID)
}

// RegisterClick counts one interaction against the free tier. Subscribed
// users are never limited. Over-limit clicks are refused before the counter
// moves, so the stored count never exceeds the limit for free users.
func (s *service) RegisterClick(ctx context.Context, userID string) (*ClickStatus, error) {
	sub, err := s.repo.GetSubscriptionByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.IsActive(time.Now()) {
		count, err := s.repo.IncrementClickCount(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &ClickStatus{Count: count, Remaining: -1}, nil
	}

	count, err := s.repo.GetClickCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= s.config.FreeClickLimit {
		return nil, ErrClickLimitReached
	}
	count, err = s.repo.IncrementClickCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ClickStatus{Count: count, Remaining: s.config.FreeClickLimit - count}, nil
}

func (s *service) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "invoice.paid":
		return s.handleInvoicePaid(ctx, event)
	case "customer.subscription.updated":
		return s.handleSubscriptionChanged(ctx, event, "")
	case "customer.subscription.deleted":
		return s.handleSubscriptionChanged(ctx, event, SubscriptionStatusCanceled)
	default:
		log.Printf("Ignoring unhandled stripe event type: %s", event.Type)
		return nil
	}
}

func (s *service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var checkoutSession stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkoutSession); err != nil {
		return fmt.Errorf("could not parse checkout session: %w", err)
	}

	userID := checkoutSession.ClientReferenceID
	if userID == "" {
		log.Printf("checkout.session.completed without client_reference_id, event %s", event.ID)
		return nil
	}

	sub := &Subscription{
		UserID:   userID,
		PlanName: s.config.PlanName,
		Status:   SubscriptionStatusActive,
		// Provisional period end. The first customer.subscription.updated
		// event carries the real one.
		CurrentPeriodEnd: time.Now().AddDate(0, 1, 0),
	}
	if checkoutSession.Customer != nil {
		sub.StripeCustomerID = checkoutSession.Customer.ID
	}
	if checkoutSession.Subscription != nil {
		sub.StripeSubscriptionID = checkoutSession.Subscription.ID
	}
	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("could not upsert subscription: %w", err)
	}

	return s.recordPayment(ctx, event.ID, userID, checkoutSession.AmountTotal, string(checkoutSession.Currency), "Subscription checkout")
}

func (s *service) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("could not parse invoice: %w", err)
	}
	if invoice.Customer == nil {
		return nil
	}

	// Renewal invoices can race the checkout event. Returning an error makes
	// Stripe redeliver once the customer mapping exists.
	userID, err := s.repo.GetUserIDByStripeCustomer(ctx, invoice.Customer.ID)
	if err != nil {
		return err
	}

	// A paid invoice extends the subscription by its line period.
	if invoice.Subscription != nil && invoice.Lines != nil && len(invoice.Lines.Data) > 0 {
		if period := invoice.Lines.Data[0].Period; period != nil && period.End > 0 {
			periodEnd := time.Unix(period.End, 0).UTC()
			if err := s.repo.UpdateSubscriptionStatus(ctx, invoice.Subscription.ID, SubscriptionStatusActive, periodEnd); err != nil {
				return fmt.Errorf("could not refresh subscription period: %w", err)
			}
		}
	}

	return s.recordPayment(ctx, event.ID, userID, invoice.AmountPaid, string(invoice.Currency), "Subscription renewal")
}

func (s *service) handleSubscriptionChanged(ctx context.Context, event stripe.Event, forcedStatus string) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return fmt.Errorf("could not parse subscription: %w", err)
	}

	status := forcedStatus
	if status == "" {
		status = translateStripeStatus(stripeSub.Status)
	}
	periodEnd := time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()
	return s.repo.UpdateSubscriptionStatus(ctx, stripeSub.ID, status, periodEnd)
}

func translateStripeStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return SubscriptionStatusCanceled
	default:
		return string(status)
	}
}

func (s *service) recordPayment(ctx context.Context, eventID, userID string, amountCents int64, currency, description string) error {
	record := &PaymentRecord{
		UserID:        userID,
		StripeEventID: eventID,
		AmountCents:   amountCents,
		Currency:      currency,
		Description:   description,
		PaidAt:        time.Now().UTC(),
	}
	inserted, err := s.repo.InsertPaymentRecord(ctx, record)
	if err != nil {
		return fmt.Errorf("could not record payment: %w", err)
	}
	if !inserted {
		log.Printf("Skipping already processed stripe event %s", eventID)
		return nil
	}

	s.sendReceipt(userID, record)
	return nil
}

func (s *service) sendReceipt(userID string, record *PaymentRecord) {
	existingUser, err := s.users.GetUserByID(userID)
	if err != nil {
		log.Printf("could not load user %s for payment receipt: %v", userID, err)
		return
	}

	amount := decimal.NewFromInt(record.AmountCents).Div(decimal.NewFromInt(100))
	s.emailService.QueueEmail(existingUser.Email, emailService.PaymentReceiptData{
		UserName: existingUser.Login,
		Amount:   amount.StringFixed(2),
		Currency: record.Currency,
		PlanName: s.config.PlanName,
		PaidAt:   record.PaidAt.Format(time.RFC1123),
	})
}

func (s *service) ExpireOverdueSubscriptions(ctx context.Context) (int64, error) {
	return s.repo.MarkExpiredSubscriptions(ctx, time.Now())
}

// SyncAPIKeys persists the non-secret Stripe identifiers so the frontend
// config survives restarts with changed environment values.
func (s *service) SyncAPIKeys(ctx context.Context) error {
	keys := map[string]string{
		"publishable_key": s.config.PublishableKey,
		"price_id":        s.config.PriceID,
	}
	for name, value := range keys {
		if value == "" {
			continue
		}
		if err := s.repo.UpsertPaymentAPIKey(ctx, name, value); err != nil {
			return fmt.Errorf("could not store payment api key %s: %w", name, err)
		}
	}
	return nil
}

func (s *service) PublicConfig(ctx context.Context) (map[string]interface{}, error) {
	stored, err := s.repo.GetPaymentAPIKeys(ctx)
	if err != nil {
		return nil, err
	}
	publishableKey := s.config.PublishableKey
	if key, ok := stored["publishable_key"]; ok {
		publishableKey = key
	}
	priceID := s.config.PriceID
	if key, ok := stored["price_id"]; ok {
		priceID = key
	}
	return map[string]interface{}{
		"publishable_key":  publishableKey,
		"price_id":         priceID,
		"plan_name":        s.config.PlanName,
		"free_click_limit": s.config.FreeClickLimit,
	}, nil
}
