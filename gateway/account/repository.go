// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package account

import "context"

// Repository defines the interface for account data persistence
type Repository interface {
	// Profile operations
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	GetProfileBySubscriptionID(ctx context.Context, subscriptionID string) (*Profile, error)
	ApplySubscriptionUpdate(ctx context.Context, userID string, update SubscriptionUpdate) error

	// Quota operations
	//
	// IncrementDailyUsageBelowLimit performs a single atomic conditional
	// upsert: the counter is created at 1 or incremented only while it is
	// strictly below limit. ErrLimitReached is returned without mutation
	// when the counter is already at or above the limit.
	IncrementDailyUsageBelowLimit(ctx context.Context, userID, date string, limit int) (int, error)
	IncrementDailyUsage(ctx context.Context, userID, date string) (int, error)
	GetDailyUsage(ctx context.Context, userID, date string) (int, error)

	// ConsumeCredit atomically decrements the credit balance while it is
	// positive. ErrNoCredits is returned without mutation at zero.
	ConsumeCredit(ctx context.Context, userID string) (int, error)

	// Usage log operations
	RecordUsage(ctx context.Context, userID string, tokensUsed int, model string) error

	// Feedback operations
	SaveFeedback(ctx context.Context, fb *Feedback) (int64, error)

	// Utility
	Ping(ctx context.Context) error
}
