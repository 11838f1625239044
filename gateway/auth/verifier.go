// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

// Package auth exchanges bearer access tokens for authenticated identities.
//
// When a JWT secret is configured, tokens are verified locally (the identity
// provider signs access tokens with HS256); otherwise verification is
// delegated to the provider's user endpoint.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for missing, malformed, or expired credentials
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated caller
type Identity struct {
	ID    string
	Email string
}

// HTTPClient is an interface for HTTP client operations (enables testing)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config contains configuration for the verifier
type Config struct {
	BaseURL   string // Identity provider base URL, e.g. https://project.supabase.co
	APIKey    string // Service API key sent with remote verification calls
	JWTSecret string // Optional: enables local HS256 verification
	Timeout   time.Duration
}

// Verifier resolves bearer tokens to identities
type Verifier struct {
	baseURL   string
	apiKey    string
	jwtSecret []byte
	client    HTTPClient
}

// NewVerifier creates a new identity verifier
func NewVerifier(cfg Config) *Verifier {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	v := &Verifier{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
	if cfg.JWTSecret != "" {
		v.jwtSecret = []byte(cfg.JWTSecret)
	}
	return v
}

// Verify exchanges a bearer token for the authenticated identity
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	if v.jwtSecret != nil {
		return v.verifyLocal(token)
	}
	return v.verifyRemote(ctx, token)
}

type accessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// verifyLocal validates the token signature and expiry without a network call
func (v *Verifier) verifyLocal(token string) (*Identity, error) {
	claims := &accessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.jwtSecret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: claims.Subject, Email: claims.Email}, nil
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// verifyRemote asks the identity provider to resolve the token
func (v *Verifier) verifyRemote(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrInvalidToken
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: user.ID, Email: user.Email}, nil
}
