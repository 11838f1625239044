// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package account

import "time"

// Profile is the billing and entitlement record for one user.
//
// IsPro together with SubscriptionEndDate determines the effective tier;
// the effective value is never stored, only computed (see IsActivePro).
type Profile struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	DisplayName          string     `json:"display_name,omitempty"`
	Credits              int        `json:"credits"`
	IsPro                bool       `json:"is_pro"`
	PayPalSubscriptionID string     `json:"paypal_subscription_id,omitempty"`
	PayPalPayerID        string     `json:"paypal_payer_id,omitempty"`
	SubscriptionEndDate  *time.Time `json:"subscription_end_date,omitempty"`
	LastEventTime        *time.Time `json:"last_event_time,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// DailyUsage is one user's message counter for a single calendar date.
// Rows are created lazily on the first message of the day.
type DailyUsage struct {
	UserID       string `json:"user_id"`
	Date         string `json:"date"` // YYYY-MM-DD
	MessageCount int    `json:"message_count"`
}

// UsageLog is one append-only usage record written after a completed stream.
type UsageLog struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	TokensUsed int       `json:"tokens_used"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}

// Feedback is a free-text feedback submission, optionally tied to a user.
type Feedback struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating,omitempty"`
	Page      string    `json:"page,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscriptionUpdate carries the entitlement fields the billing reconciler
// writes onto a profile. Nil pointer fields clear the stored value.
type SubscriptionUpdate struct {
	IsPro               bool
	SubscriptionID      string
	PayerID             string
	SubscriptionEndDate *time.Time
	EventTime           *time.Time
}
