// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package billing

import (
	"encoding/json"
	"time"
)

// PayPal webhook event types handled by the reconciler
const (
	EventSubscriptionCreated     = "BILLING.SUBSCRIPTION.CREATED"
	EventSubscriptionActivated   = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionUpdated     = "BILLING.SUBSCRIPTION.UPDATED"
	EventSubscriptionReactivated = "BILLING.SUBSCRIPTION.RE-ACTIVATED"
	EventSubscriptionCancelled   = "BILLING.SUBSCRIPTION.CANCELLED"
	EventSubscriptionSuspended   = "BILLING.SUBSCRIPTION.SUSPENDED"
	EventSubscriptionExpired     = "BILLING.SUBSCRIPTION.EXPIRED"
	EventPaymentCompleted        = "PAYMENT.SALE.COMPLETED"
	EventPaymentDenied           = "PAYMENT.SALE.DENIED"
	EventPaymentRefunded         = "PAYMENT.SALE.REFUNDED"
	EventPaymentReversed         = "PAYMENT.SALE.REVERSED"
)

// SubscriptionStatusActive is the PayPal status string granting pro tier
const SubscriptionStatusActive = "ACTIVE"

// WebhookEvent is the envelope PayPal posts to the webhook endpoint.
// It lives for a single request and is never persisted.
type WebhookEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	CreateTime *time.Time      `json:"create_time,omitempty"`
	Resource   json.RawMessage `json:"resource"`
}

// Link is one HATEOAS link on a PayPal resource
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// Subscriber identifies the paying party on a subscription
type Subscriber struct {
	EmailAddress string `json:"email_address,omitempty"`
	PayerID      string `json:"payer_id,omitempty"`
}

// BillingInfo carries the billing schedule of a subscription
type BillingInfo struct {
	NextBillingTime *time.Time `json:"next_billing_time,omitempty"`
}

// SubscriptionResource is the PayPal billing subscription resource, both as
// delivered inside webhook events and as returned by the subscriptions API.
type SubscriptionResource struct {
	ID          string       `json:"id"`
	CustomID    string       `json:"custom_id,omitempty"`
	Status      string       `json:"status,omitempty"`
	PlanID      string       `json:"plan_id,omitempty"`
	Subscriber  *Subscriber  `json:"subscriber,omitempty"`
	BillingInfo *BillingInfo `json:"billing_info,omitempty"`
	Links       []Link       `json:"links,omitempty"`
}

// SaleResource is the payload of PAYMENT.SALE.* events. Payment events carry
// no tier-relevant status themselves; only their subscription linkage is used.
type SaleResource struct {
	ID                    string `json:"id,omitempty"`
	State                 string `json:"state,omitempty"`
	BillingAgreementID    string `json:"billing_agreement_id,omitempty"`
	BillingSubscriptionID string `json:"billing_subscription_id,omitempty"`
	SubscriptionID        string `json:"subscription_id,omitempty"`
}

// LinkedSubscriptionID returns the subscription id a sale resource refers to,
// or "" when none of the linkage fields is set.
func (s *SaleResource) LinkedSubscriptionID() string {
	if s.BillingAgreementID != "" {
		return s.BillingAgreementID
	}
	if s.BillingSubscriptionID != "" {
		return s.BillingSubscriptionID
	}
	return s.SubscriptionID
}
