// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when the PayPal credential set is absent
	// or still holds placeholder values
	ErrNotConfigured = errors.New("payment service not configured")

	// ErrNoApprovalLink is returned when a created subscription carries no
	// approve link
	ErrNoApprovalLink = errors.New("paypal approval link not found")

	// ErrNoPortalLink is returned when a subscription carries no
	// customer-manageable link
	ErrNoPortalLink = errors.New("paypal customer portal link not available")

	// ErrNoSubscription is returned when a portal lookup is attempted for a
	// profile with no linked subscription
	ErrNoSubscription = errors.New("no active subscription found")
)

// APIError carries a non-success PayPal response status and body
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal API error: %d - %s", e.Status, e.Body)
}
