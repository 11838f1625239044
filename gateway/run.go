// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"chatwindows/gateway/gateway/account"
	"chatwindows/gateway/gateway/auth"
	"chatwindows/gateway/gateway/billing"
	"chatwindows/gateway/gateway/catalog"
	"chatwindows/gateway/gateway/quota"
	"chatwindows/gateway/gateway/relay"
	"chatwindows/gateway/gateway/usage"
)

// Run is the exported entry point for the gateway service.
//
// It loads configuration, connects to PostgreSQL, wires the components
// behind the HTTP handlers, and starts the server. The function blocks
// until the server is shut down.
func Run() {
	// .env is optional; deployed environments inject real env vars
	_ = godotenv.Load()

	cfg := LoadConfig()
	log.Println("Starting ChatWindows gateway...")

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connected")

	if err := account.EnsureSchema(db); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	repo := account.NewPostgresRepository(db)

	verifier := auth.NewVerifier(auth.Config{
		BaseURL:   cfg.AuthBaseURL,
		APIKey:    cfg.AuthAPIKey,
		JWTSecret: cfg.AuthJWTSecret,
	})

	cat := catalog.Default()
	if cfg.ModelsConfigPath != "" {
		cat, err = catalog.Load(cfg.ModelsConfigPath)
		if err != nil {
			log.Fatalf("Failed to load model catalog from %s: %v", cfg.ModelsConfigPath, err)
		}
		log.Printf("Model catalog loaded from %s", cfg.ModelsConfigPath)
	}

	ledger := quota.NewLedger(repo, cfg.FreeDailyMessages)

	rel, err := relay.NewClient(relay.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Referer: cfg.FrontendURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize relay client: %v", err)
	}

	recorder := usage.NewRecorder(repo)

	paypal := billing.NewClient(billing.Config{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		WebhookID:    cfg.PayPalWebhookID,
		PlanID:       cfg.PayPalPlanID,
		Env:          cfg.PayPalEnv,
		BaseURL:      cfg.PayPalBaseURL,
	})
	if paypal.Configured() {
		log.Println("PayPal client configured")
	} else {
		log.Println("PayPal not configured - billing endpoints will return 503")
	}

	reconciler := billing.NewReconciler(repo, paypal)

	server := NewServer(cfg, verifier, repo, cat, ledger, rel, recorder, paypal, reconciler)

	r := mux.NewRouter()

	r.HandleFunc("/health", server.HandleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/api/v1/chat", server.HandleChat).Methods("POST")
	r.HandleFunc("/api/v1/user", server.HandleUser).Methods("GET")
	r.HandleFunc("/api/v1/models", server.HandleModels).Methods("GET")
	r.HandleFunc("/api/v1/feedback", server.HandleFeedback).Methods("POST")

	r.HandleFunc("/api/v1/paypal/checkout", server.HandleCheckout).Methods("POST")
	r.HandleFunc("/api/v1/paypal/portal", server.HandlePortal).Methods("POST")
	r.HandleFunc("/api/v1/paypal/webhook", server.HandleWebhook).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)
	log.Printf("ChatWindows gateway listening on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}

// HandleHealth reports service liveness and the database connection state
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	dbHealthy := s.repo.Ping(r.Context()) == nil

	status := "healthy"
	code := http.StatusOK
	if !dbHealthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"service":   "chatwindows-gateway",
		"timestamp": time.Now().UTC(),
		"components": map[string]bool{
			"database": dbHealthy,
			"paypal":   s.paypal.Configured(),
		},
	}); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
