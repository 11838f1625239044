// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"chatwindows/gateway/gateway/account"
	"chatwindows/gateway/gateway/auth"
	"chatwindows/gateway/gateway/billing"
	"chatwindows/gateway/gateway/catalog"
	"chatwindows/gateway/gateway/quota"
	"chatwindows/gateway/gateway/relay"
	"chatwindows/gateway/gateway/usage"
	"chatwindows/gateway/shared/logger"
)

// identityVerifier resolves bearer tokens to authenticated identities
type identityVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// streamRelay issues streaming completions against the upstream provider
type streamRelay interface {
	StreamChatCompletion(ctx context.Context, messages []relay.ChatMessage, model string, opts relay.Options) (io.ReadCloser, error)
}

// paymentGateway is the slice of the PayPal client the handlers need
type paymentGateway interface {
	Configured() bool
	PlanID() string
	CreateSubscription(ctx context.Context, userID, userEmail, planID, returnURL, cancelURL string) (*billing.CreatedSubscription, error)
	CustomerPortalURL(ctx context.Context, subscriptionID string) (string, error)
	VerifyWebhookSignature(ctx context.Context, payload []byte, headers http.Header) (bool, error)
}

// eventReconciler applies verified webhook events to account state
type eventReconciler interface {
	HandleEvent(ctx context.Context, event *billing.WebhookEvent) error
}

// Server carries the wired components behind the HTTP handlers
type Server struct {
	cfg        *Config
	verifier   identityVerifier
	repo       account.Repository
	catalog    *catalog.Catalog
	ledger     *quota.Ledger
	relay      streamRelay
	recorder   *usage.Recorder
	paypal     paymentGateway
	reconciler eventReconciler
	validate   *validator.Validate
	log        *logger.Logger
	now        func() time.Time
}

// NewServer assembles a server from its components
func NewServer(cfg *Config, verifier identityVerifier, repo account.Repository,
	cat *catalog.Catalog, ledger *quota.Ledger, rel streamRelay,
	recorder *usage.Recorder, paypal paymentGateway, reconciler eventReconciler) *Server {
	return &Server{
		cfg:        cfg,
		verifier:   verifier,
		repo:       repo,
		catalog:    cat,
		ledger:     ledger,
		relay:      rel,
		recorder:   recorder,
		paypal:     paypal,
		reconciler: reconciler,
		validate:   validator.New(),
		log:        logger.New("gateway"),
		now:        time.Now,
	}
}

// bearerToken extracts the credential from the Authorization header,
// returning "" when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// authenticate resolves the request's bearer credential to an identity.
// A nil identity means the error response has already been written.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) *auth.Identity {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
		return nil
	}

	identity, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil
	}
	return identity
}

// requestID mints a correlation id for log entries
func requestID() string {
	return uuid.NewString()
}
