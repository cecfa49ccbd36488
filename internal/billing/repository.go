package billing

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Repository interface {
	UpsertSubscription(ctx context.Context, sub *Subscription) error
	GetSubscriptionByUserID(ctx context.Context, userID string) (*Subscription, error)
	GetUserIDByStripeCustomer(ctx context.Context, stripeCustomerID string) (string, error)
	UpdateSubscriptionStatus(ctx context.Context, stripeSubscriptionID, status string, currentPeriodEnd time.Time) error
	MarkExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error)
	InsertPaymentRecord(ctx context.Context, record *PaymentRecord) (bool, error)
	ListPaymentsByUser(ctx context.Context, userID string) ([]PaymentRecord, error)
	IncrementClickCount(ctx context.Context, userID string) (int, error)
	GetClickCount(ctx context.Context, userID string) (int, error)
	UpsertPaymentAPIKey(ctx context.Context, name, value string) error
	GetPaymentAPIKeys(ctx context.Context) (map[string]string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) UpsertSubscription(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, stripe_customer_id, stripe_subscription_id, plan_name, status, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			plan_name = EXCLUDED.plan_name,
			status = EXCLUDED.status,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		sub.UserID, sub.StripeCustomerID, sub.StripeSubscriptionID, sub.PlanName, sub.Status, sub.CurrentPeriodEnd,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

func (r *repository) GetSubscriptionByUserID(ctx context.Context, userID string) (*Subscription, error) {
	query := `
		SELECT id, user_id, stripe_customer_id, stripe_subscription_id, plan_name, status, current_period_end, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`
	var sub Subscription
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.StripeCustomerID, &sub.StripeSubscriptionID,
		&sub.PlanName, &sub.Status, &sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) GetUserIDByStripeCustomer(ctx context.Context, stripeCustomerID string) (string, error) {
	query := `SELECT user_id FROM subscriptions WHERE stripe_customer_id = $1`
	var userID string
	err := r.db.QueryRowContext(ctx, query, stripeCustomerID).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUnknownStripeCustomer
		}
		return "", err
	}
	return userID, nil
}

func (r *repository) UpdateSubscriptionStatus(ctx context.Context, stripeSubscriptionID, status string, currentPeriodEnd time.Time) error {
	query := `
		UPDATE subscriptions
		SET status = $1, current_period_end = $2, updated_at = NOW()
		WHERE stripe_subscription_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, currentPeriodEnd, stripeSubscriptionID)
	return err
}

func (r *repository) MarkExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE subscriptions
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND current_period_end < $3
	`
	result, err := r.db.ExecContext(ctx, query, SubscriptionStatusExpired, SubscriptionStatusActive, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// InsertPaymentRecord reports whether the row was actually inserted. A false
// return means the event was already processed.
func (r *repository) InsertPaymentRecord(ctx context.Context, record *PaymentRecord) (bool, error) {
	query := `
		INSERT INTO payment_history (user_id, stripe_event_id, amount_cents, currency, description, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (stripe_event_id) DO NOTHING
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		record.UserID, record.StripeEventID, record.AmountCents, record.Currency, record.Description, record.PaidAt,
	).Scan(&record.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) ListPaymentsByUser(ctx context.Context, userID string) ([]PaymentRecord, error) {
	query := `
		SELECT id, user_id, stripe_event_id, amount_cents, currency, description, paid_at
		FROM payment_history
		WHERE user_id = $1
		ORDER BY paid_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PaymentRecord
	for rows.Next() {
		var record PaymentRecord
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.StripeEventID,
			&record.AmountCents, &record.Currency, &record.Description, &record.PaidAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *repository) IncrementClickCount(ctx context.Context, userID string) (int, error) {
	query := `
		INSERT INTO user_click_counts (user_id, count)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE SET count = user_click_counts.count + 1, updated_at = NOW()
		RETURNING count
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

func (r *repository) UpsertPaymentAPIKey(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO payment_api_keys (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, name, value)
	return err
}

func (r *repository) GetPaymentAPIKeys(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM payment_api_keys`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		keys[name] = value
	}
	return keys, rows.Err()
}

func (r *repository) GetClickCount(ctx context.Context, userID string) (int, error) {
	query := `SELECT count FROM user_click_counts WHERE user_id = $1`
	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}
