// Package server provides the HTTP REST API for the match analysis engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/akirakaori/lakshya-match/internal/analysis"
	"github.com/akirakaori/lakshya-match/internal/config"
	"github.com/akirakaori/lakshya-match/internal/db"
	"github.com/akirakaori/lakshya-match/internal/llm"
	"github.com/akirakaori/lakshya-match/internal/semantic"
	"github.com/akirakaori/lakshya-match/internal/server/ratelimit"
	"github.com/akirakaori/lakshya-match/internal/suggest"
)

// MatchService is the engine surface the handlers talk to.
type MatchService interface {
	GetOrCompute(ctx context.Context, userID, jobID uuid.UUID) (*db.MatchAnalysis, error)
	Recompute(ctx context.Context, userID, jobID uuid.UUID) (*db.MatchAnalysis, error)
	CachedWithStaleness(ctx context.Context, userID, jobID uuid.UUID) (*analysis.CachedAnalysis, error)
	BatchScores(ctx context.Context, userID uuid.UUID, jobIDs []uuid.UUID) (map[string]analysis.BatchScore, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	matches     MatchService
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	llmClient   llm.Client
}

// Config holds server configuration
type Config struct {
	Port               int
	DatabaseURL        string
	SemanticServiceURL string
	LLM                *llm.Config
	CacheTTL           time.Duration
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	// Connect to database
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	scorer := semantic.NewClient(cfg.SemanticServiceURL, semantic.DefaultTimeout)
	analyzer := analysis.NewAnalyzer(scorer,
		suggest.NewLLMGenerator(llmClient),
		suggest.NewRuleGenerator(),
	)

	s := &Server{
		db:          database,
		matches:     analysis.NewService(database, analyzer, cfg.CacheTTL),
		jwtService:  NewJWTService(jwtConfig),
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		llmClient:   llmClient,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Match analysis endpoints (authenticated)
	mux.Handle("GET /jobs/{job_id}/match", s.withAuth(http.HandlerFunc(s.handleGetJobMatch)))
	mux.Handle("GET /jobs/{job_id}/match/status", s.withAuth(http.HandlerFunc(s.handleGetJobMatchStatus)))
	mux.Handle("POST /jobs/{job_id}/match/refresh", s.withAuth(http.HandlerFunc(s.handleRefreshJobMatch)))
	mux.Handle("POST /jobs/match-scores", s.withAuth(http.HandlerFunc(s.handleBatchMatchScores)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.llmClient != nil {
		_ = s.llmClient.Close()
	}

	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// successResponse writes the standard success envelope.
func (s *Server) successResponse(w http.ResponseWriter, status int, message string, data any) {
	s.jsonResponse(w, status, map[string]any{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// errorResponse writes the standard error envelope.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// serviceErrorResponse maps engine errors onto HTTP statuses. Only NotFound
// and Validation reach callers as client errors; anything else is a storage
// failure (the engine itself degrades rather than erroring).
func (s *Server) serviceErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case analysis.IsNotFound(err):
		s.errorResponse(w, http.StatusNotFound, err.Error())
	case analysis.IsValidation(err):
		s.errorResponse(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[server] internal error: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}

// extractClientID extracts the client identifier from the request.
// For now this uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
