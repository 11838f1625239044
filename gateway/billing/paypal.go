// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

// Package billing wraps the PayPal subscription billing API and reconciles
// its asynchronous webhook events onto local account entitlement state.
package billing

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// PayPal environment base URLs
const (
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
	LiveBaseURL    = "https://api-m.paypal.com"
)

// tokenExpiryMargin is the remaining validity below which the cached access
// token is refreshed before use.
const tokenExpiryMargin = 60 * time.Second

// HTTPClient is an interface for HTTP client operations (enables testing)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config contains the PayPal credential set and environment selector
type Config struct {
	ClientID     string
	ClientSecret string
	WebhookID    string
	PlanID       string
	Env          string // "sandbox" (default) or "live"
	BaseURL      string // Optional override, wins over Env
	Timeout      time.Duration
}

// Client wraps the PayPal REST API. The only process-wide mutable state is
// the cached access token; a concurrent refresh is last-writer-wins, which
// wastes one exchange at worst and corrupts nothing.
type Client struct {
	clientID     string
	clientSecret string
	webhookID    string
	planID       string
	baseURL      string
	client       HTTPClient
	now          func() time.Time

	mu             sync.Mutex
	cachedToken    string
	tokenExpiresAt time.Time
}

// NewClient creates a new PayPal client
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Env == "live" {
			baseURL = LiveBaseURL
		} else {
			baseURL = SandboxBaseURL
		}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		webhookID:    cfg.WebhookID,
		planID:       cfg.PlanID,
		baseURL:      baseURL,
		client:       &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

// Configured reports whether the full credential set is present and free of
// placeholder values. Endpoints depending on PayPal answer 503 when false.
func (c *Client) Configured() bool {
	for _, v := range []string{c.clientID, c.clientSecret, c.webhookID, c.planID} {
		if v == "" || strings.Contains(v, "<") {
			return false
		}
	}
	return true
}

// PlanID returns the configured default billing plan id
func (c *Client) PlanID() string {
	return c.planID
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// getAccessToken returns the cached access token when it has more than 60s of
// validity left, otherwise performs a client-credentials exchange and
// replaces the cache.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.cachedToken != "" && c.tokenExpiresAt.After(c.now().Add(tokenExpiryMargin)) {
		token := c.cachedToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal auth request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.mu.Lock()
	c.cachedToken = tr.AccessToken
	c.tokenExpiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	c.mu.Unlock()

	return tr.AccessToken, nil
}

// doRequest performs an authenticated JSON request against the PayPal API
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return c.client.Do(req)
}

// CreatedSubscription is the result of CreateSubscription
type CreatedSubscription struct {
	ID          string
	ApprovalURL string
}

type createSubscriptionRequest struct {
	PlanID             string             `json:"plan_id"`
	CustomID           string             `json:"custom_id"`
	Subscriber         Subscriber         `json:"subscriber"`
	ApplicationContext applicationContext `json:"application_context"`
}

type applicationContext struct {
	ReturnURL  string `json:"return_url"`
	CancelURL  string `json:"cancel_url"`
	BrandName  string `json:"brand_name"`
	UserAction string `json:"user_action"`
}

// CreateSubscription creates a billing subscription for the user and returns
// the id plus the approval URL the client must be redirected to.
func (c *Client) CreateSubscription(ctx context.Context, userID, userEmail, planID, returnURL, cancelURL string) (*CreatedSubscription, error) {
	resp, err := c.doRequest(ctx, "POST", "/v1/billing/subscriptions", createSubscriptionRequest{
		PlanID:     planID,
		CustomID:   userID,
		Subscriber: Subscriber{EmailAddress: userEmail},
		ApplicationContext: applicationContext{
			ReturnURL:  returnURL,
			CancelURL:  cancelURL,
			BrandName:  "ChatWindows",
			UserAction: "SUBSCRIBE_NOW",
		},
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var sub SubscriptionResource
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscription response: %w", err)
	}

	for _, link := range sub.Links {
		if link.Rel == "approve" && link.Href != "" {
			return &CreatedSubscription{ID: sub.ID, ApprovalURL: link.Href}, nil
		}
	}
	return nil, ErrNoApprovalLink
}

// GetSubscription fetches the full subscription resource by id
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionResource, error) {
	resp, err := c.doRequest(ctx, "GET", "/v1/billing/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var sub SubscriptionResource
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscription: %w", err)
	}
	return &sub, nil
}

// CustomerPortalURL resolves the link a subscriber can use to manage the
// subscription, preferring manage over edit over self.
func (c *Client) CustomerPortalURL(ctx context.Context, subscriptionID string) (string, error) {
	sub, err := c.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return "", err
	}

	for _, rel := range []string{"manage", "edit", "self"} {
		for _, link := range sub.Links {
			if link.Rel == rel && link.Href != "" {
				return link.Href, nil
			}
		}
	}
	return "", ErrNoPortalLink
}

type verifySignatureRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifySignatureResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// VerifyWebhookSignature delegates signature verification to PayPal's
// verify-webhook-signature endpoint. A missing header short-circuits to
// invalid without a network call.
func (c *Client) VerifyWebhookSignature(ctx context.Context, payload []byte, headers http.Header) (bool, error) {
	transmissionID := headers.Get("Paypal-Transmission-Id")
	transmissionTime := headers.Get("Paypal-Transmission-Time")
	certURL := headers.Get("Paypal-Cert-Url")
	authAlgo := headers.Get("Paypal-Auth-Algo")
	transmissionSig := headers.Get("Paypal-Transmission-Sig")

	if transmissionID == "" || transmissionTime == "" || certURL == "" ||
		authAlgo == "" || transmissionSig == "" {
		return false, nil
	}

	resp, err := c.doRequest(ctx, "POST", "/v1/notifications/verify-webhook-signature", verifySignatureRequest{
		AuthAlgo:         authAlgo,
		CertURL:          certURL,
		TransmissionID:   transmissionID,
		TransmissionSig:  transmissionSig,
		TransmissionTime: transmissionTime,
		WebhookID:        c.webhookID,
		WebhookEvent:     json.RawMessage(payload),
	})
	if err != nil {
		return false, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var vr verifySignatureResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return false, fmt.Errorf("failed to decode verification response: %w", err)
	}
	return vr.VerificationStatus == "SUCCESS", nil
}
