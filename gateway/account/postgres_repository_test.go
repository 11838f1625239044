// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, func() { _ = db.Close() }
}

func profileRows(id string, credits int, isPro bool, endDate *time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "email", "display_name", "credits", "is_pro",
		"paypal_subscription_id", "paypal_payer_id", "subscription_end_date",
		"last_event_time", "created_at", "updated_at",
	}).AddRow(id, "u@example.com", "User", credits, isPro, "I-SUB1", nil, endDate, nil, now, now)
}

func TestGetProfile(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM profiles WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", 3, true, nil))

	p, err := repo.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, 3, p.Credits)
	assert.True(t, p.IsPro)
	assert.Equal(t, "I-SUB1", p.PayPalSubscriptionID)
	assert.Nil(t, p.SubscriptionEndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_NotFound(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM profiles WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGetProfileBySubscriptionID(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM profiles WHERE paypal_subscription_id = \$1`).
		WithArgs("I-SUB1").
		WillReturnRows(profileRows("user-1", 0, true, nil))

	p, err := repo.GetProfileBySubscriptionID(context.Background(), "I-SUB1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)
}

func TestIncrementDailyUsageBelowLimit(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`INSERT INTO daily_usage (.+) ON CONFLICT \(user_id, date\) DO UPDATE`).
		WithArgs("user-1", "2026-03-15", 30).
		WillReturnRows(sqlmock.NewRows([]string{"message_count"}).AddRow(12))

	count, err := repo.IncrementDailyUsageBelowLimit(context.Background(), "user-1", "2026-03-15", 30)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}

func TestIncrementDailyUsageBelowLimit_AtLimit(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	// The conditional upsert returns no row once the counter is at the limit
	mock.ExpectQuery(`INSERT INTO daily_usage`).
		WithArgs("user-1", "2026-03-15", 30).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.IncrementDailyUsageBelowLimit(context.Background(), "user-1", "2026-03-15", 30)
	assert.ErrorIs(t, err, ErrLimitReached)
}

func TestConsumeCredit(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`UPDATE profiles\s+SET credits = credits - 1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(1))

	remaining, err := repo.ConsumeCredit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestConsumeCredit_Exhausted(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`UPDATE profiles\s+SET credits = credits - 1`).
		WithArgs("user-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ConsumeCredit(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNoCredits)
}

func TestApplySubscriptionUpdate(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	end := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	eventTime := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE profiles SET`).
		WithArgs("user-1", true, "I-SUB1", "PAYER1", end, eventTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplySubscriptionUpdate(context.Background(), "user-1", SubscriptionUpdate{
		IsPro:               true,
		SubscriptionID:      "I-SUB1",
		PayerID:             "PAYER1",
		SubscriptionEndDate: &end,
		EventTime:           &eventTime,
	})
	assert.NoError(t, err)
}

func TestApplySubscriptionUpdate_StaleEvent(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Guarded update touches no rows, then the profile lookup succeeds,
	// so the zero-row outcome is classified as a stale event.
	mock.ExpectExec(`UPDATE profiles SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM profiles WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", 0, true, nil))

	err := repo.ApplySubscriptionUpdate(context.Background(), "user-1", SubscriptionUpdate{
		IsPro:     false,
		EventTime: &old,
	})
	assert.ErrorIs(t, err, ErrStaleEvent)
}

func TestApplySubscriptionUpdate_ProfileMissing(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectExec(`UPDATE profiles SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM profiles WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	err := repo.ApplySubscriptionUpdate(context.Background(), "ghost", SubscriptionUpdate{IsPro: true})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGetDailyUsage_NoRow(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT message_count FROM daily_usage`).
		WithArgs("user-1", "2026-03-15").
		WillReturnError(sql.ErrNoRows)

	count, err := repo.GetDailyUsage(context.Background(), "user-1", "2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRecordUsage(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectExec(`INSERT INTO usage_logs`).
		WithArgs("user-1", 250, "openai/gpt-4o-mini").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.RecordUsage(context.Background(), "user-1", 250, "openai/gpt-4o-mini")
	assert.NoError(t, err)
}

func TestSaveFeedback(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`INSERT INTO feedbacks`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := repo.SaveFeedback(context.Background(), &Feedback{
		UserID:  "user-1",
		Type:    "bug",
		Message: "stream cut off",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}
