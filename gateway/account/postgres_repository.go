// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const profileColumns = `id, email, display_name, credits, is_pro,
		   paypal_subscription_id, paypal_payer_id, subscription_end_date,
		   last_event_time, created_at, updated_at`

// GetProfile retrieves a profile by user id
func (r *PostgresRepository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, userID))
}

// GetProfileBySubscriptionID retrieves the profile linked to a PayPal
// subscription id. Used to resolve webhook events that carry no user id.
func (r *PostgresRepository) GetProfileBySubscriptionID(ctx context.Context, subscriptionID string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE paypal_subscription_id = $1`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, subscriptionID))
}

func (r *PostgresRepository) scanProfile(row *sql.Row) (*Profile, error) {
	var p Profile
	var displayName, subscriptionID, payerID sql.NullString
	var endDate, lastEvent sql.NullTime

	err := row.Scan(
		&p.ID, &p.Email, &displayName, &p.Credits, &p.IsPro,
		&subscriptionID, &payerID, &endDate, &lastEvent,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.DisplayName = displayName.String
	p.PayPalSubscriptionID = subscriptionID.String
	p.PayPalPayerID = payerID.String
	if endDate.Valid {
		t := endDate.Time
		p.SubscriptionEndDate = &t
	}
	if lastEvent.Valid {
		t := lastEvent.Time
		p.LastEventTime = &t
	}
	return &p, nil
}

// ApplySubscriptionUpdate writes reconciled entitlement state onto a profile.
//
// The write is an idempotent upsert keyed by user id. Subscription and payer
// ids are only overwritten when the update carries a non-empty value, so a
// cancellation keeps the stored subscription id for audit and lookup. When
// the update carries an event time, rows whose last_event_time is newer are
// left untouched and ErrStaleEvent is returned.
func (r *PostgresRepository) ApplySubscriptionUpdate(ctx context.Context, userID string, update SubscriptionUpdate) error {
	query := `
		UPDATE profiles SET
			is_pro = $2,
			paypal_subscription_id = COALESCE(NULLIF($3, ''), paypal_subscription_id),
			paypal_payer_id = COALESCE(NULLIF($4, ''), paypal_payer_id),
			subscription_end_date = $5,
			last_event_time = COALESCE($6, last_event_time),
			updated_at = NOW()
		WHERE id = $1
		  AND ($6::timestamptz IS NULL OR last_event_time IS NULL OR last_event_time <= $6)
	`

	res, err := r.db.ExecContext(ctx, query,
		userID, update.IsPro, update.SubscriptionID, update.PayerID,
		update.SubscriptionEndDate, update.EventTime,
	)
	if err != nil {
		return fmt.Errorf("failed to apply subscription update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to apply subscription update: %w", err)
	}
	if rows == 0 {
		// Either the profile does not exist or the guard rejected a stale event.
		if _, getErr := r.GetProfile(ctx, userID); getErr != nil {
			return getErr
		}
		return ErrStaleEvent
	}
	return nil
}

// IncrementDailyUsageBelowLimit atomically creates or increments the daily
// counter while it is below limit, returning the new count. ErrLimitReached
// is returned without mutation once the counter is at or above the limit.
func (r *PostgresRepository) IncrementDailyUsageBelowLimit(ctx context.Context, userID, date string, limit int) (int, error) {
	query := `
		INSERT INTO daily_usage (user_id, date, message_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, date) DO UPDATE
		SET message_count = daily_usage.message_count + 1
		WHERE daily_usage.message_count < $3
		RETURNING message_count
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, date, limit).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrLimitReached
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment daily usage: %w", err)
	}
	return count, nil
}

// IncrementDailyUsage unconditionally creates or increments the daily counter.
// Used after a credit was consumed to cover a message past the free limit.
func (r *PostgresRepository) IncrementDailyUsage(ctx context.Context, userID, date string) (int, error) {
	query := `
		INSERT INTO daily_usage (user_id, date, message_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, date) DO UPDATE
		SET message_count = daily_usage.message_count + 1
		RETURNING message_count
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment daily usage: %w", err)
	}
	return count, nil
}

// GetDailyUsage returns the message count for (user, date), 0 when no row exists
func (r *PostgresRepository) GetDailyUsage(ctx context.Context, userID, date string) (int, error) {
	query := `SELECT message_count FROM daily_usage WHERE user_id = $1 AND date = $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, date).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get daily usage: %w", err)
	}
	return count, nil
}

// ConsumeCredit atomically decrements the credit balance while it is positive,
// returning the remaining balance. ErrNoCredits is returned without mutation
// when the balance is already zero.
func (r *PostgresRepository) ConsumeCredit(ctx context.Context, userID string) (int, error) {
	query := `
		UPDATE profiles
		SET credits = credits - 1, updated_at = NOW()
		WHERE id = $1 AND credits > 0
		RETURNING credits
	`

	var remaining int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, ErrNoCredits
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume credit: %w", err)
	}
	return remaining, nil
}

// RecordUsage appends one usage log row
func (r *PostgresRepository) RecordUsage(ctx context.Context, userID string, tokensUsed int, model string) error {
	query := `INSERT INTO usage_logs (user_id, tokens_used, model) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, userID, tokensUsed, model); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// SaveFeedback stores a feedback submission and returns its id
func (r *PostgresRepository) SaveFeedback(ctx context.Context, fb *Feedback) (int64, error) {
	query := `
		INSERT INTO feedbacks (user_id, email, type, message, rating, page, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		nullString(fb.UserID), nullString(fb.Email), fb.Type, fb.Message,
		nullInt(fb.Rating), nullString(fb.Page), nullString(fb.UserAgent),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save feedback: %w", err)
	}
	return id, nil
}

// Ping verifies database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// nullString converts an empty string to NULL for database insertion
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullInt converts a zero value to NULL for database insertion
func nullInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
