// Package http is the REST facade over the gateway services: thin
// pass-through handlers that shape request parameters into service calls and
// marshal the results back as JSON.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/tradegate/internal/adapters/driven/auth"
	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driving"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	sessionService   driving.SessionService
	brokerageService driving.BrokerageService

	// gatewayAuth is nil when local auth is disabled.
	gatewayAuth *auth.Adapter

	environment domain.Environment
	apiBaseURL  string
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	Version     string
	Environment domain.Environment
	APIBaseURL  string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "127.0.0.1",
		Port:    8000,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	sessionService driving.SessionService,
	brokerageService driving.BrokerageService,
	gatewayAuth *auth.Adapter, // can be nil
) *Server {
	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		sessionService:   sessionService,
		brokerageService: brokerageService,
		gatewayAuth:      gatewayAuth,
		environment:      cfg.Environment,
		apiBaseURL:       cfg.APIBaseURL,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.gatewayAuth)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /config", s.handleConfig)

	// Gateway login (public)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// OAuth handshake endpoints
	s.router.Handle("POST /api/v1/oauth/start",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleOAuthStart)))
	s.router.Handle("POST /api/v1/oauth/verifier",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleOAuthVerifier)))
	s.router.Handle("POST /api/v1/oauth/complete",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleOAuthComplete)))
	s.router.Handle("GET /api/v1/oauth/status",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleOAuthStatus)))

	// Account endpoints
	s.router.Handle("GET /api/v1/accounts",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListAccounts)))
	s.router.Handle("GET /api/v1/summary",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSummary)))
	s.router.Handle("GET /api/v1/accounts/{accountIdKey}/balance",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleBalance)))
	s.router.Handle("GET /api/v1/accounts/{accountIdKey}/portfolio",
		authMiddleware.Authenticate(http.HandlerFunc(s.handlePortfolio)))

	// Order endpoints
	s.router.Handle("GET /api/v1/accounts/{accountIdKey}/orders",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListOrders)))
	s.router.Handle("POST /api/v1/accounts/{accountIdKey}/orders/preview",
		authMiddleware.Authenticate(http.HandlerFunc(s.handlePreviewOrder)))
	s.router.Handle("POST /api/v1/accounts/{accountIdKey}/orders/place",
		authMiddleware.Authenticate(http.HandlerFunc(s.handlePlaceOrder)))
	s.router.Handle("PUT /api/v1/accounts/{accountIdKey}/orders/cancel",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCancelOrder)))

	// Market data endpoints
	s.router.Handle("GET /api/v1/market/quote/{symbols}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQuotes)))
	s.router.Handle("GET /api/v1/market/lookup/{search}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleLookup)))
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for requests. Blocks until shutdown or error.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
