package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/tradegate/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// LoginRequest is the gateway passphrase login body.
type LoginRequest struct {
	Passphrase string `json:"passphrase"`
}

// LoginResponse carries the gateway bearer token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// VerifierRequest carries the user-supplied OAuth verifier code.
type VerifierRequest struct {
	Code string `json:"code"`
}

// CancelOrderRequest identifies the order to cancel.
type CancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the gateway
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "tradegate"})
}

// handleVersion godoc
// @Summary      Get gateway version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// handleConfig godoc
// @Summary      Get configuration status
// @Description  Reports the active environment and vendor base URL
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /config [get]
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"environment":   s.environment,
		"sandbox":       s.environment == domain.EnvironmentSandbox,
		"base_url":      s.apiBaseURL,
		"auth_required": s.gatewayAuth != nil,
	})
}

// handleLogin godoc
// @Summary      Gateway login
// @Description  Exchange the gateway passphrase for a bearer token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Gateway passphrase"
// @Success      200      {object}  LoginResponse
// @Failure      401      {object}  ErrorResponse  "Invalid passphrase"
// @Router       /api/v1/auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.gatewayAuth == nil {
		writeError(w, http.StatusNotFound, "gateway auth is not enabled")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.gatewayAuth.VerifyPassphrase(req.Passphrase) {
		writeError(w, http.StatusUnauthorized, "invalid passphrase")
		return
	}

	token, expiresAt, err := s.gatewayAuth.IssueToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")})
}

// OAuth handshake endpoints

// handleOAuthStart godoc
// @Summary      Start OAuth handshake
// @Description  Fetches a request token and returns the authorization URL the user must visit
// @Tags         OAuth
// @Produce      json
// @Success      200  {object}  domain.AuthorizationGrant
// @Failure      502  {object}  ErrorResponse  "Vendor rejected the request"
// @Router       /api/v1/oauth/start [post]
func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	grant, err := s.sessionService.BeginAuthorization(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grant)
}

// handleOAuthVerifier godoc
// @Summary      Supply OAuth verifier
// @Description  Stores the verifier code obtained on the authorization page
// @Tags         OAuth
// @Accept       json
// @Produce      json
// @Param        request  body      VerifierRequest  true  "Verifier code"
// @Success      200      {object}  StatusResponse
// @Failure      409      {object}  ErrorResponse  "No handshake in flight"
// @Router       /api/v1/oauth/verifier [post]
func (s *Server) handleOAuthVerifier(w http.ResponseWriter, r *http.Request) {
	var req VerifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := s.sessionService.SupplyVerifier(req.Code); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleOAuthComplete godoc
// @Summary      Complete OAuth handshake
// @Description  Exchanges the request token and verifier for an access token
// @Tags         OAuth
// @Produce      json
// @Success      200  {object}  domain.TokenPair
// @Failure      409  {object}  ErrorResponse  "Handshake steps out of order"
// @Failure      502  {object}  ErrorResponse  "Vendor rejected the exchange"
// @Router       /api/v1/oauth/complete [post]
func (s *Server) handleOAuthComplete(w http.ResponseWriter, r *http.Request) {
	pair, err := s.sessionService.CompleteAuthorization(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// handleOAuthStatus godoc
// @Summary      Authentication status
// @Tags         OAuth
// @Produce      json
// @Success      200  {object}  domain.SessionStatus
// @Router       /api/v1/oauth/status [get]
func (s *Server) handleOAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionService.Status())
}

// Account endpoints

// handleListAccounts godoc
// @Summary      List accounts
// @Tags         Accounts
// @Produce      json
// @Success      200  {array}   domain.Account
// @Failure      401  {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/accounts [get]
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.brokerageService.ListAccounts(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

// handleSummary godoc
// @Summary      All-accounts summary
// @Description  Every account with cash, positions, and grand totals
// @Tags         Accounts
// @Produce      json
// @Success      200  {object}  domain.Summary
// @Failure      401  {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/summary [get]
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.brokerageService.Summary(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleBalance godoc
// @Summary      Account balance
// @Tags         Accounts
// @Produce      json
// @Param        accountIdKey  path      string  true  "Account ID key"
// @Success      200           {object}  domain.Balance
// @Failure      401           {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/accounts/{accountIdKey}/balance [get]
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.brokerageService.Balance(r.Context(), r.PathValue("accountIdKey"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// handlePortfolio godoc
// @Summary      Account portfolio
// @Tags         Accounts
// @Produce      json
// @Param        accountIdKey  path      string  true  "Account ID key"
// @Success      200           {array}   domain.Position
// @Failure      401           {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/accounts/{accountIdKey}/portfolio [get]
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	positions, err := s.brokerageService.Portfolio(r.Context(), r.PathValue("accountIdKey"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

// Order endpoints

// handleListOrders godoc
// @Summary      List orders
// @Tags         Orders
// @Produce      json
// @Param        accountIdKey  path      string  true   "Account ID key"
// @Param        status        query     string  false  "Status filter (OPEN, EXECUTED, CANCELLED, ...)"
// @Success      200           {array}   domain.Order
// @Failure      401           {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/accounts/{accountIdKey}/orders [get]
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.brokerageService.ListOrders(r.Context(), r.PathValue("accountIdKey"), r.URL.Query().Get("status"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// handlePreviewOrder godoc
// @Summary      Preview an order
// @Description  Submits the order for preview; the returned previewId is required to place it
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        accountIdKey  path      string               true  "Account ID key"
// @Param        request       body      domain.OrderRequest  true  "Order"
// @Success      200           {object}  domain.OrderPreview
// @Failure      400           {object}  ErrorResponse  "Invalid order"
// @Failure      401           {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/accounts/{accountIdKey}/orders/preview [post]
func (s *Server) handlePreviewOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	preview, err := s.brokerageService.PreviewOrder(r.Context(), r.PathValue("accountIdKey"), &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handlePlaceOrder godoc
// @Summary      Place a previewed order
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        accountIdKey  path      string                    true  "Account ID key"
// @Param        request       body      domain.PlaceOrderRequest  true  "Order with preview linkage"
// @Success      200           {object}  domain.PlacedOrder
// @Failure      400           {object}  ErrorResponse  "Invalid order"
// @Failure      401           {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/accounts/{accountIdKey}/orders/place [post]
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	placed, err := s.brokerageService.PlaceOrder(r.Context(), r.PathValue("accountIdKey"), &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placed)
}

// handleCancelOrder godoc
// @Summary      Cancel an open order
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        accountIdKey  path      string              true  "Account ID key"
// @Param        request       body      CancelOrderRequest  true  "Order ID"
// @Success      200           {object}  StatusResponse
// @Failure      401           {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/accounts/{accountIdKey}/orders/cancel [put]
func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	if err := s.brokerageService.CancelOrder(r.Context(), r.PathValue("accountIdKey"), req.OrderID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "orderId": req.OrderID})
}

// Market data endpoints

// handleQuotes godoc
// @Summary      Get quotes
// @Tags         Market
// @Produce      json
// @Param        symbols  path      string  true  "Comma-separated symbols"
// @Success      200      {array}   domain.Quote
// @Failure      401      {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/market/quote/{symbols} [get]
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.brokerageService.Quotes(r.Context(), r.PathValue("symbols"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
}

// handleLookup godoc
// @Summary      Symbol lookup
// @Tags         Market
// @Produce      json
// @Param        search  path      string  true  "Search term"
// @Success      200     {array}   domain.LookupResult
// @Failure      401     {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/market/lookup/{search} [get]
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	results, err := s.brokerageService.Lookup(r.Context(), r.PathValue("search"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Helpers

// writeServiceError maps domain errors onto the transport.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAuthorized):
		writeError(w, http.StatusUnauthorized, "not authenticated: start the OAuth flow via POST /api/v1/oauth/start")
	case errors.Is(err, domain.ErrNoRequestToken), errors.Is(err, domain.ErrNoVerifier):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrMissingCredentials):
		writeError(w, http.StatusInternalServerError, "consumer credentials not configured")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid request")
	default:
		if vendorErr, ok := domain.AsVendorError(err); ok {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":         "vendor rejected request",
				"vendor_status": vendorErr.Status,
				"vendor_body":   vendorErr.Body,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
