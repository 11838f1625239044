// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the ChatWindows gateway service.
//
// The gateway fronts the chat backend:
// - Authenticates bearer tokens against the identity provider
// - Enforces per-tier model access and daily free-message quotas
// - Relays streaming chat completions from the upstream inference provider
// - Reconciles PayPal subscription webhooks into account state
//
// Usage:
//
//	./gateway
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	DATABASE_URL - PostgreSQL connection string (required)
//	FRONTEND_URL - Allowed CORS origin and checkout redirect base
//	FREE_DAILY_MESSAGES - Free tier daily message limit (default: 30)
//	OPENROUTER_API_KEY - Upstream inference API key (required)
//	OPENROUTER_BASE_URL - Upstream base URL override (optional)
//	AUTH_BASE_URL - Identity provider base URL
//	AUTH_SERVICE_KEY - Identity provider service key
//	AUTH_JWT_SECRET - Enables local token verification (optional)
//	PAYPAL_CLIENT_ID / PAYPAL_CLIENT_SECRET - PayPal REST credentials
//	PAYPAL_WEBHOOK_ID - Webhook signature verification id
//	PAYPAL_PLAN_ID - Default subscription billing plan
//	PAYPAL_ENV - "sandbox" (default) or "live"
//	MODELS_CONFIG - Optional YAML model catalog override file
package main

import (
	"chatwindows/gateway/gateway"
)

func main() {
	gateway.Run()
}
