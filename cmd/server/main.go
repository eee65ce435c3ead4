// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/iyunix/go-chatapp/internal/config"
	"github.com/iyunix/go-chatapp/internal/handlers"
	"github.com/iyunix/go-chatapp/internal/middleware"
	"github.com/iyunix/go-chatapp/internal/ratelimit"
	sessionrepo "github.com/iyunix/go-chatapp/internal/repository/session"
	"github.com/iyunix/go-chatapp/internal/services"
	"github.com/iyunix/go-chatapp/internal/services/ai"
)

func corsMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func main() {
	cfg := config.Load()
	logger := services.NewLogger("go_chatapp")

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}
	if err := sessionrepo.Migrate(db); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	repo := sessionrepo.NewGormSessionRepository(db)

	// --- Services ---
	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.LLMAPIKey
	aiConfig.BaseURL = cfg.LLMBaseURL
	aiConfig.Model = cfg.LLMModel
	aiConfig.SystemPrompt = cfg.SystemPrompt
	if err := aiConfig.Validate(); err != nil {
		log.Fatalf("FATAL: invalid AI configuration: %v", err)
	}
	provider := ai.NewOpenAIProvider(aiConfig)

	sessionService, err := services.NewSessionService(repo, provider, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Session Service: %v", err)
	}

	// --- Handlers ---
	chatHandler, err := handlers.NewChatHandler(sessionService, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Chat Handler: %v", err)
	}

	// --- Router Setup ---
	r := mux.NewRouter()
	authMiddleware := middleware.NewBearerAuthMiddleware([]byte(cfg.JWTSecretKey), logger)

	chatLimiterConfig := ratelimit.DefaultChatConfig()
	chatLimiterConfig.MaxRequests = cfg.ChatRateLimit
	chatLimiter := ratelimit.NewMemoryRateLimiter(chatLimiterConfig)
	defer chatLimiter.Close()

	r.Use(corsMiddleware(cfg.AllowedOrigin))
	r.Use(middleware.RecoverPanic(logger))
	r.Use(middleware.LoggingMiddleware(logger))

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	// --- Protected Routes ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)

	// Turn submission is the only endpoint that spends provider quota, so it
	// gets its own limiter.
	turns := api.PathPrefix("/chat").Subrouter()
	turns.Use(middleware.RateLimitMiddleware(chatLimiter, "chat", logger))
	turns.HandleFunc("", chatHandler.SubmitTurn).Methods("POST")

	api.HandleFunc("/chat/history", chatHandler.GetHistory).Methods("GET")
	api.HandleFunc("/chat/sessions/{userId}/{sessionId}", chatHandler.GetSession).Methods("GET")
	api.HandleFunc("/chat/sessions/{userId}/{sessionId}", chatHandler.DeleteSession).Methods("DELETE")
	api.HandleFunc("/chat/sessions/{userId}/{sessionId}/export", chatHandler.ExportSession).Methods("GET")

	// --- Server Configuration ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	logger.Info("server starting", "port", cfg.ServerPort, "model", cfg.LLMModel)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	logger.Info("server stopped")
}
