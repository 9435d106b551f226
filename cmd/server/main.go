package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/geohealth/gateway/internal/auth"
	"github.com/geohealth/gateway/internal/cache"
	"github.com/geohealth/gateway/internal/config"
	"github.com/geohealth/gateway/internal/gateway"
	"github.com/geohealth/gateway/internal/history"
	"github.com/geohealth/gateway/internal/httpapi"
	"github.com/geohealth/gateway/internal/provider"
	"github.com/geohealth/gateway/internal/ratelimit"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize activity history (optional). The handler takes the
	// interface, so leave it nil rather than wrapping a nil *history.DB.
	var recorder httpapi.Recorder
	if cfg.DatabaseURL != "" {
		historyDB, err := history.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer historyDB.Close()
		recorder = historyDB
	} else {
		log.Println("DATABASE_URL not set, activity history disabled")
	}

	// Initialize rate limiter
	limiter, err := ratelimit.NewRateLimiter(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to initialize rate limiter:", err)
	}
	defer limiter.Close()

	// Initialize result cache
	store, err := cache.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to initialize cache:", err)
	}
	defer store.Close()

	// Initialize Gemini client
	gemini, err := provider.NewGemini(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer gemini.Close()

	// Assemble the analysis gateway
	gw := gateway.New(gemini, store, gateway.Options{
		Models: gateway.Models{
			Fast:      cfg.FastModel,
			Reasoning: cfg.ReasoningModel,
			Grounded:  cfg.GroundedModel,
			Image:     cfg.ImageModel,
		},
		TTL: gateway.TTL{
			Location: cfg.LocationTTL,
			Facility: cfg.FacilityTTL,
			Forecast: cfg.ForecastTTL,
			Alerts:   cfg.AlertsTTL,
			Snapshot: cfg.SnapshotTTL,
		},
	})

	// Initialize router
	router := mux.NewRouter()

	// Auth middleware
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	// Public routes
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.HandleFunc("/auth/token", tokenHandler(cfg)).Methods("POST")

	// Analysis API
	apiHandler := httpapi.NewHandler(gw, limiter, recorder, store, cfg.RateLimitPerHour)
	apiHandler.RegisterAdminRoutes(router)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)
	apiHandler.RegisterRoutes(api)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	log.Printf("Analysis API available at /api/v1/*")
	if err := http.ListenAndServe(":"+cfg.ServerPort, router); err != nil {
		log.Fatal("Server failed:", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

// tokenHandler exchanges the app's shared API key for a user-scoped
// JWT. Sign-in itself lives in the external auth backend; this only
// mints the token the analysis API checks.
func tokenHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			APIKey string `json:"api_key"`
			UserID string `json:"user_id"`
			Email  string `json:"email"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		if cfg.AppAPIKey == "" || req.APIKey != cfg.AppAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}
		if req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		token, err := auth.GenerateToken(req.UserID, req.Email, cfg.JWTSecret)
		if err != nil {
			log.Printf("Token generation failed: %v", err)
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"token": token,
		})
	}
}
