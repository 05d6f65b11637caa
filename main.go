// Command backend starts the glowdesk payments HTTP server.
//
// The server hosts the split-payment core of the platform: payment intent
// creation with marketplace fee splitting, webhook-driven and poll-driven
// payment reconciliation, and merchant gateway account linking via OAuth.
//
// Configuration comes from an optional YAML file (CONFIG_PATH, default
// config.yaml) with environment overrides; see the config package for the
// full list of knobs. The server listens on :8080 by default.
package main

import (
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/glowdesk/backend/config"
	"github.com/glowdesk/backend/gateway"
	"github.com/glowdesk/backend/handlers"
	"github.com/glowdesk/backend/payments"
	"github.com/glowdesk/backend/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	s, err := store.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer s.Close()

	gw := gateway.NewClient(cfg.Gateway.BaseURL)
	svc := payments.NewService(s, gw, cfg.Gateway, logger)
	h := handlers.New(svc, s, cfg.Gateway.WebhookSecret, logger)

	mux := http.NewServeMux()

	// CORS middleware wraps every route so the storefront (served from a
	// different origin) can reach the API.
	mux.Handle("POST /payments", corsMiddleware(http.HandlerFunc(h.CreateIntent)))
	mux.Handle("GET /payments/{id}/status", corsMiddleware(http.HandlerFunc(h.CheckStatus)))
	mux.Handle("POST /webhooks/payments", http.HandlerFunc(h.Webhook))
	mux.Handle("GET /oauth/authorize", corsMiddleware(http.HandlerFunc(h.BeginOAuthLink)))
	mux.Handle("GET /oauth/callback", corsMiddleware(http.HandlerFunc(h.CompleteOAuthLink)))
	mux.Handle("GET /tenants/{id}", corsMiddleware(http.HandlerFunc(h.GetTenant)))
	mux.Handle("PUT /tenants/{id}", corsMiddleware(http.HandlerFunc(h.UpdateTenant)))
	mux.Handle("POST /tenants/{id}/disconnect", corsMiddleware(http.HandlerFunc(h.Disconnect)))
	mux.Handle("GET /tenants/{id}/transactions", corsMiddleware(http.HandlerFunc(h.ListTransactions)))

	// Handle pre-flight OPTIONS requests for all paths.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			setCORSHeaders(w)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.NotFound(w, r)
	})

	logger.Info("listening", zap.String("port", cfg.Port), zap.String("db", cfg.DBPath))
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// setCORSHeaders adds CORS headers to a response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Privileged-Update")
	w.Header().Set("Access-Control-Expose-Headers", "X-Idempotency-Write")
}

// corsMiddleware wraps an http.Handler with CORS support.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
