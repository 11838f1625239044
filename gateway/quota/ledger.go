// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

// Package quota enforces the free-tier daily message cap with a fallback
// credit balance. Pro-tier requests never reach this package.
package quota

import (
	"context"
	"errors"
	"fmt"

	"chatwindows/gateway/gateway/account"
)

// ErrQuotaExceeded is returned when both the daily allowance and the credit
// balance are exhausted.
var ErrQuotaExceeded = errors.New("daily message limit reached and no credits remaining")

// Ledger meters free-tier message consumption against the account store.
type Ledger struct {
	repo       account.Repository
	dailyLimit int
}

// Result reports the outcome of an accepted message.
type Result struct {
	MessageCount     int
	CreditUsed       bool
	CreditsRemaining int
}

// NewLedger creates a ledger enforcing the given daily message limit.
func NewLedger(repo account.Repository, dailyLimit int) *Ledger {
	return &Ledger{repo: repo, dailyLimit: dailyLimit}
}

// DailyLimit returns the configured free daily message limit.
func (l *Ledger) DailyLimit() int {
	return l.dailyLimit
}

// Consume accounts for one free-tier message on the given date.
//
// While the daily counter is below the limit, the counter is incremented in
// a single atomic conditional upsert and no credit is touched. Once the
// counter is at the limit, one credit is consumed (atomically, never below
// zero) and the counter still advances so usage reporting stays accurate.
// With the counter at the limit and no credits left, ErrQuotaExceeded is
// returned and nothing is mutated.
func (l *Ledger) Consume(ctx context.Context, userID, date string) (*Result, error) {
	count, err := l.repo.IncrementDailyUsageBelowLimit(ctx, userID, date, l.dailyLimit)
	if err == nil {
		return &Result{MessageCount: count}, nil
	}
	if !errors.Is(err, account.ErrLimitReached) {
		return nil, fmt.Errorf("failed to increment daily usage: %w", err)
	}

	remaining, err := l.repo.ConsumeCredit(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrNoCredits) {
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("failed to consume credit: %w", err)
	}

	count, err = l.repo.IncrementDailyUsage(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to increment daily usage: %w", err)
	}

	return &Result{
		MessageCount:     count,
		CreditUsed:       true,
		CreditsRemaining: remaining,
	}, nil
}
