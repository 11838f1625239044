// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chatwindows/gateway/gateway/account"
	"chatwindows/gateway/shared/logger"
)

// SubscriptionFetcher is the slice of the PayPal client the reconciler needs
type SubscriptionFetcher interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionResource, error)
}

// Reconciler applies verified billing webhook events to account entitlement
// state. All writes are idempotent upserts keyed by user id; events carrying
// a create time older than the last applied event are ignored. An event that
// cannot be resolved to a user is logged and dropped, never retried.
type Reconciler struct {
	repo   account.Repository
	paypal SubscriptionFetcher
	log    *logger.Logger
}

// NewReconciler creates a new subscription event reconciler
func NewReconciler(repo account.Repository, paypal SubscriptionFetcher) *Reconciler {
	return &Reconciler{
		repo:   repo,
		paypal: paypal,
		log:    logger.New("billing"),
	}
}

// HandleEvent dispatches one verified webhook event. The returned error only
// covers malformed payloads; reconciliation failures are logged and swallowed
// so the webhook endpoint can always answer 200 and stop redelivery.
func (r *Reconciler) HandleEvent(ctx context.Context, event *WebhookEvent) error {
	switch event.EventType {
	case EventSubscriptionCreated, EventSubscriptionActivated,
		EventSubscriptionUpdated, EventSubscriptionReactivated:
		var sub SubscriptionResource
		if err := json.Unmarshal(event.Resource, &sub); err != nil {
			return fmt.Errorf("failed to parse subscription resource: %w", err)
		}
		r.handleSubscriptionUpsert(ctx, &sub, event.CreateTime)

	case EventSubscriptionCancelled, EventSubscriptionSuspended, EventSubscriptionExpired:
		var sub SubscriptionResource
		if err := json.Unmarshal(event.Resource, &sub); err != nil {
			return fmt.Errorf("failed to parse subscription resource: %w", err)
		}
		r.handleSubscriptionEnded(ctx, &sub, event.CreateTime)

	case EventPaymentCompleted, EventPaymentDenied:
		var sale SaleResource
		if err := json.Unmarshal(event.Resource, &sale); err != nil {
			return fmt.Errorf("failed to parse sale resource: %w", err)
		}
		r.handlePaymentEvent(ctx, &sale, event.CreateTime)

	case EventPaymentRefunded, EventPaymentReversed:
		var sale SaleResource
		if err := json.Unmarshal(event.Resource, &sale); err != nil {
			return fmt.Errorf("failed to parse sale resource: %w", err)
		}
		r.handleRefundEvent(ctx, &sale, event.CreateTime)

	default:
		r.log.Info("", "", "unhandled paypal event type", map[string]interface{}{
			"event_type": event.EventType,
		})
	}
	return nil
}

// handleSubscriptionUpsert applies creation/activation/update/reactivation:
// pro iff the subscription status is ACTIVE, expiry = next billing time.
func (r *Reconciler) handleSubscriptionUpsert(ctx context.Context, sub *SubscriptionResource, eventTime *time.Time) {
	userID := r.resolveUserID(ctx, sub.CustomID, sub.ID)
	if userID == "" || sub.ID == "" {
		r.log.Error("", "", "paypal subscription event missing user context", map[string]interface{}{
			"subscription_id": sub.ID,
		})
		return
	}

	update := account.SubscriptionUpdate{
		IsPro:          sub.Status == SubscriptionStatusActive,
		SubscriptionID: sub.ID,
		EventTime:      eventTime,
	}
	if sub.Subscriber != nil {
		update.PayerID = sub.Subscriber.PayerID
	}
	if sub.BillingInfo != nil && sub.BillingInfo.NextBillingTime != nil {
		t := *sub.BillingInfo.NextBillingTime
		update.SubscriptionEndDate = &t
	}

	r.applyUpdate(ctx, userID, update, "subscription upsert")
}

// handleSubscriptionEnded applies cancellation/suspension/expiration: the pro
// flag and expiry are cleared, the subscription id stays for audit and lookup.
func (r *Reconciler) handleSubscriptionEnded(ctx context.Context, sub *SubscriptionResource, eventTime *time.Time) {
	userID := r.resolveUserID(ctx, sub.CustomID, sub.ID)
	if userID == "" || sub.ID == "" {
		r.log.Error("", "", "paypal subscription end event missing user context", map[string]interface{}{
			"subscription_id": sub.ID,
		})
		return
	}

	r.applyUpdate(ctx, userID, account.SubscriptionUpdate{
		IsPro:     false,
		EventTime: eventTime,
	}, "subscription ended")
}

// handlePaymentEvent refreshes authoritative state: payment events carry no
// tier-relevant status, so the subscription is re-fetched and re-applied.
func (r *Reconciler) handlePaymentEvent(ctx context.Context, sale *SaleResource, eventTime *time.Time) {
	subscriptionID := sale.LinkedSubscriptionID()
	if subscriptionID == "" {
		r.log.Info("", "", "paypal payment event without subscription id", nil)
		return
	}

	sub, err := r.paypal.GetSubscription(ctx, subscriptionID)
	if err != nil {
		r.log.ErrorWithErr("", "", "failed to sync subscription after payment event", err, map[string]interface{}{
			"subscription_id": subscriptionID,
		})
		return
	}
	r.handleSubscriptionUpsert(ctx, sub, eventTime)
}

// handleRefundEvent downgrades the linked account, independent of whether the
// subscription can still be fetched.
func (r *Reconciler) handleRefundEvent(ctx context.Context, sale *SaleResource, eventTime *time.Time) {
	subscriptionID := sale.LinkedSubscriptionID()
	if subscriptionID == "" {
		r.log.Info("", "", "paypal refund event without subscription id", nil)
		return
	}

	userID := r.resolveUserID(ctx, "", subscriptionID)
	if userID == "" {
		r.log.Error("", "", "paypal refund event missing user context", map[string]interface{}{
			"subscription_id": subscriptionID,
		})
		return
	}

	r.applyUpdate(ctx, userID, account.SubscriptionUpdate{
		IsPro:     false,
		EventTime: eventTime,
	}, "refund")
}

// resolveUserID resolves the target account: the event's explicit custom id
// wins, otherwise the account linked to the subscription id is looked up.
func (r *Reconciler) resolveUserID(ctx context.Context, customID, subscriptionID string) string {
	if customID != "" {
		return customID
	}
	if subscriptionID == "" {
		return ""
	}
	profile, err := r.repo.GetProfileBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return ""
	}
	return profile.ID
}

func (r *Reconciler) applyUpdate(ctx context.Context, userID string, update account.SubscriptionUpdate, cause string) {
	err := r.repo.ApplySubscriptionUpdate(ctx, userID, update)
	if err == nil {
		r.log.Info(userID, "", "profile updated from "+cause, map[string]interface{}{
			"is_pro": update.IsPro,
		})
		return
	}
	if errors.Is(err, account.ErrStaleEvent) {
		r.log.Warn(userID, "", "ignored stale paypal event", map[string]interface{}{
			"cause": cause,
		})
		return
	}
	r.log.ErrorWithErr(userID, "", "failed to update profile from "+cause, err, nil)
}
