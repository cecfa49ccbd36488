package database

import (
	"context"
	"fmt"
)

// schemaStatements holds the full ExpenseFlow schema. Every statement is
// idempotent so EnsureSchema can run on each startup.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL UNIQUE,
		login TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		two_factor_secret TEXT,
		hash_token TEXT NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS email_verification_codes (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		code TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		category_id UUID NOT NULL,
		amount NUMERIC(14, 2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses (user_id, date)`,
	`CREATE TABLE IF NOT EXISTS budget_goals (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		month INT NOT NULL,
		year INT NOT NULL,
		amount NUMERIC(14, 2) NOT NULL,
		PRIMARY KEY (user_id, month, year)
	)`,
	`CREATE TABLE IF NOT EXISTS budget_goal_history (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		month INT NOT NULL,
		year INT NOT NULL,
		amount NUMERIC(14, 2) NOT NULL,
		start_date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS category_budgets (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		category_id UUID NOT NULL,
		month INT NOT NULL,
		year INT NOT NULL,
		amount NUMERIC(14, 2) NOT NULL,
		UNIQUE (user_id, category_id, month, year)
	)`,
	`CREATE TABLE IF NOT EXISTS saving_goals (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount NUMERIC(14, 2) NOT NULL,
		purpose TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		achieved BOOLEAN NOT NULL DEFAULT FALSE,
		progress NUMERIC(14, 2) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		stripe_customer_id TEXT NOT NULL DEFAULT '',
		stripe_subscription_id TEXT NOT NULL DEFAULT '',
		plan_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		current_period_end TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_stripe_customer ON subscriptions (stripe_customer_id)`,
	`CREATE TABLE IF NOT EXISTS payment_history (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		stripe_event_id TEXT NOT NULL UNIQUE,
		amount_cents BIGINT NOT NULL,
		currency TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		paid_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS payment_api_keys (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_click_counts (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		count INT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates any missing tables.
func (s *DBService) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("could not apply schema statement: %w", err)
		}
	}
	return nil
}
