// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"database/sql"
	"fmt"
)

// EnsureSchema creates the account tables if they don't exist
func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id VARCHAR(255) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			display_name VARCHAR(255),
			credits INTEGER NOT NULL DEFAULT 0,
			is_pro BOOLEAN NOT NULL DEFAULT FALSE,
			paypal_subscription_id VARCHAR(255),
			paypal_payer_id VARCHAR(255),
			subscription_end_date TIMESTAMPTZ,
			last_event_time TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_paypal_subscription_id
			ON profiles (paypal_subscription_id)`,
		`CREATE TABLE IF NOT EXISTS daily_usage (
			user_id VARCHAR(255) NOT NULL,
			date DATE NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS usage_logs (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			tokens_used INTEGER NOT NULL,
			model VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_logs_user_created
			ON usage_logs (user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS feedbacks (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255),
			email VARCHAR(255),
			type VARCHAR(50) NOT NULL DEFAULT 'general',
			message TEXT NOT NULL,
			rating INTEGER,
			page VARCHAR(255),
			user_agent TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure account schema: %w", err)
		}
	}
	return nil
}
