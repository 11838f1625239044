// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"chatwindows/gateway/gateway/account"
	"chatwindows/gateway/gateway/billing"
)

// CheckoutRequest is the request body of the checkout endpoint
type CheckoutRequest struct {
	PlanID string `json:"planId,omitempty"`
}

// HandleCheckout creates a PayPal subscription for the caller and returns
// the approval URL the client must redirect to.
func (s *Server) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	if !s.paypal.Configured() {
		writeError(w, http.StatusServiceUnavailable, "Payment service not configured")
		return
	}

	identity := s.authenticate(w, r)
	if identity == nil {
		return
	}

	var req CheckoutRequest
	if r.Body != nil {
		// Body is optional; the configured default plan applies
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	planID := req.PlanID
	if planID == "" {
		planID = s.paypal.PlanID()
	}
	if planID == "" || strings.Contains(planID, "<") {
		writeError(w, http.StatusBadRequest, "Plan ID not configured. Please set up PayPal Billing Plans.")
		return
	}

	successURL := s.cfg.FrontendURL + "/subscription/success"
	cancelURL := s.cfg.FrontendURL + "/subscription/cancel"

	sub, err := s.paypal.CreateSubscription(r.Context(), identity.ID, identity.Email,
		planID, successURL, cancelURL)
	if err != nil {
		s.log.ErrorWithErr(identity.ID, "", "failed to create paypal subscription", err, nil)
		writeErrorWithMessage(w, http.StatusInternalServerError,
			"Failed to create PayPal subscription", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"subscriptionId": sub.ID,
		"url":            sub.ApprovalURL,
	})
}

// HandlePortal resolves the PayPal customer portal link for the caller's
// linked subscription.
func (s *Server) HandlePortal(w http.ResponseWriter, r *http.Request) {
	if !s.paypal.Configured() {
		writeError(w, http.StatusServiceUnavailable, "Payment service not configured")
		return
	}

	identity := s.authenticate(w, r)
	if identity == nil {
		return
	}

	profile, err := s.repo.GetProfile(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, account.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "User profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if profile.PayPalSubscriptionID == "" {
		writeError(w, http.StatusBadRequest, "No active subscription found")
		return
	}

	url, err := s.paypal.CustomerPortalURL(r.Context(), profile.PayPalSubscriptionID)
	if err != nil {
		s.log.ErrorWithErr(identity.ID, "", "failed to resolve customer portal", err, nil)
		writeErrorWithMessage(w, http.StatusInternalServerError,
			"Failed to get customer portal", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// HandleWebhook verifies and dispatches one PayPal webhook delivery.
//
// Once an event is dispatched the endpoint answers 200 even when
// reconciliation logged an error internally, so the provider never retries
// forever on lookup failures.
func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	valid, err := s.paypal.VerifyWebhookSignature(r.Context(), payload, r.Header)
	if err != nil || !valid {
		if err != nil {
			s.log.ErrorWithErr("", "", "webhook signature verification failed", err, nil)
		}
		promWebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event billing.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		promWebhookEvents.WithLabelValues("unknown", "malformed").Inc()
		writeError(w, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	if err := s.reconciler.HandleEvent(r.Context(), &event); err != nil {
		s.log.ErrorWithErr("", "", "webhook processing failed", err, map[string]interface{}{
			"event_type": event.EventType,
		})
		promWebhookEvents.WithLabelValues(event.EventType, "malformed").Inc()
		writeError(w, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	promWebhookEvents.WithLabelValues(event.EventType, "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
