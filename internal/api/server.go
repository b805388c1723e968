// Package api exposes the HTTP surface of the wallet service. Handlers
// translate JSON requests into application-service calls and map error kinds
// onto HTTP statuses, returning only generic messages to callers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentwallet/agentwallet/internal/app"
	"github.com/agentwallet/agentwallet/internal/config"
	"github.com/agentwallet/agentwallet/internal/logger"
	"github.com/agentwallet/agentwallet/internal/metrics"
	"github.com/agentwallet/agentwallet/internal/middleware"
	"github.com/agentwallet/agentwallet/internal/storage"
	apperrors "github.com/agentwallet/agentwallet/pkg/errors"
)

// TransferSender runs transfer requests through the signing pipeline and
// serves the submitted-transfer history
type TransferSender interface {
	Send(ctx context.Context, req *app.SendRequest) (*app.SendResult, error)
	History(ctx context.Context, accountID string, limit int) ([]*storage.Transfer, error)
}

// WalletProvisioner creates and looks up custodial wallets
type WalletProvisioner interface {
	Provision(ctx context.Context, accountID string) (*storage.Wallet, error)
	GetWallet(ctx context.Context, accountID string) (*storage.Wallet, error)
}

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	transfers   TransferSender
	provisioner WalletProvisioner
	appAuth     *middleware.AppAuth
	rateLimiter *middleware.RateLimiter
	httpServer  *http.Server
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	transfers TransferSender,
	provisioner WalletProvisioner,
	appAuth *middleware.AppAuth,
	rateLimiter *middleware.RateLimiter,
) *Server {
	return &Server{
		config:      cfg,
		transfers:   transfers,
		provisioner: provisioner,
		appAuth:     appAuth,
		rateLimiter: rateLimiter,
	}
}

// Handler builds the full middleware and routing chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Operational endpoints, no auth
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// API v1 routes. Chain: rate limit -> app auth -> handler
	mux.Handle("/v1/wallets",
		s.rateLimiter.Limit(
			s.appAuth.Authenticate(http.HandlerFunc(s.handleWallets))))

	mux.Handle("/v1/wallets/",
		s.rateLimiter.Limit(
			s.appAuth.Authenticate(http.HandlerFunc(s.handleWalletByAccount))))

	mux.Handle("/v1/transfers",
		s.rateLimiter.Limit(
			s.appAuth.Authenticate(http.HandlerFunc(s.handleTransfers))))

	return middleware.RequestID(s.instrument(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info(context.Background(), "starting server", "port", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// instrument records request duration and logs request completion
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := middleware.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.
			WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(rec.StatusCode)).
			Observe(elapsed.Seconds())

		logger.Info(r.Context(), "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.StatusCode,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// routeLabel collapses per-account paths into one metrics label to keep
// cardinality bounded
func routeLabel(path string) string {
	switch {
	case path == "/health" || path == "/metrics" || path == "/v1/wallets" || path == "/v1/transfers":
		return path
	case len(path) > len("/v1/wallets/") && path[:len("/v1/wallets/")] == "/v1/wallets/":
		return "/v1/wallets/{account_id}"
	default:
		return "other"
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps an error onto an HTTP response. Clients get the generic
// message only; the code and detail go to the logs.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr, ok := apperrors.IsAppError(err)
	if !ok {
		appErr = apperrors.ErrInternalError
	}

	logFn := logger.Warn
	if appErr.StatusCode >= http.StatusInternalServerError {
		logFn = logger.Error
	}
	logFn(ctx, "request failed",
		"code", appErr.Code,
		"detail", appErr.Detail,
		"error", err,
	)

	s.writeJSON(w, appErr.StatusCode, map[string]string{"error": appErr.Message})
}

// methodNotAllowed rejects unsupported methods on a known route
func (s *Server) methodNotAllowed(ctx context.Context, w http.ResponseWriter) {
	s.writeError(ctx, w, apperrors.New(
		apperrors.ErrCodeBadRequest,
		"Method not allowed",
		http.StatusMethodNotAllowed,
	))
}
