// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package account

import "errors"

var (
	// ErrProfileNotFound is returned when no profile exists for a user id
	ErrProfileNotFound = errors.New("user profile not found")

	// ErrNoCredits is returned when a credit decrement finds the balance at zero
	ErrNoCredits = errors.New("no credits remaining")

	// ErrLimitReached is returned when the guarded daily counter increment
	// finds the counter at or above the configured limit
	ErrLimitReached = errors.New("daily message limit reached")

	// ErrStaleEvent is returned when a subscription update carries an event
	// time older than the last one applied to the profile
	ErrStaleEvent = errors.New("subscription event older than last applied")
)
