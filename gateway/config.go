// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"os"
	"strconv"
	"time"
)

// Config is the environment-level configuration of the gateway
type Config struct {
	Port        string
	FrontendURL string
	DatabaseURL string

	// Free tier
	FreeDailyMessages int

	// Upstream inference provider
	OpenRouterBaseURL string
	OpenRouterAPIKey  string

	// Identity provider
	AuthBaseURL   string
	AuthAPIKey    string
	AuthJWTSecret string

	// Payment provider
	PayPalClientID     string
	PayPalClientSecret string
	PayPalWebhookID    string
	PayPalPlanID       string
	PayPalEnv          string
	PayPalBaseURL      string

	// Optional model catalog override file
	ModelsConfigPath string
}

// LoadConfig reads configuration from the environment
func LoadConfig() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		FreeDailyMessages: getEnvInt("FREE_DAILY_MESSAGES", 30),

		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", ""),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),

		AuthBaseURL:   os.Getenv("AUTH_BASE_URL"),
		AuthAPIKey:    os.Getenv("AUTH_SERVICE_KEY"),
		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),

		PayPalClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
		PayPalWebhookID:    os.Getenv("PAYPAL_WEBHOOK_ID"),
		PayPalPlanID:       os.Getenv("PAYPAL_PLAN_ID"),
		PayPalEnv:          getEnv("PAYPAL_ENV", "sandbox"),
		PayPalBaseURL:      os.Getenv("PAYPAL_BASE_URL"),

		ModelsConfigPath: os.Getenv("MODELS_CONFIG"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// today returns the UTC calendar date used as the daily counter key
func today(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}
