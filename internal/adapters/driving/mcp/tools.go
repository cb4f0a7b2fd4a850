package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/tradegate/internal/core/domain"
)

// toolHandler executes one tool call. The returned payload always carries a
// "status" field so agents can branch on success/error without inspecting
// transport-level errors.
type toolHandler func(ctx context.Context, args json.RawMessage) any

type toolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (s *Server) registerTools() {
	s.handlers = map[string]toolHandler{}

	s.addTool(toolDefinition{
		Name:        "etrade_auth_status",
		Description: "Check E*TRADE authentication status. When not authenticated, starts the OAuth flow and returns the authorization URL the user must visit.",
		InputSchema: objectSchema(map[string]any{}),
	}, s.toolAuthStatus)

	s.addTool(toolDefinition{
		Name:        "etrade_auth_callback",
		Description: "Complete E*TRADE OAuth with the verifier code from the authorization page.",
		InputSchema: objectSchema(map[string]any{
			"verifier": map[string]any{"type": "string", "description": "Verification code shown after authorizing on E*TRADE"},
		}, "verifier"),
	}, s.toolAuthCallback)

	s.addTool(toolDefinition{
		Name:        "etrade_get_accounts",
		Description: "Get the list of all E*TRADE accounts.",
		InputSchema: objectSchema(map[string]any{}),
	}, s.toolGetAccounts)

	s.addTool(toolDefinition{
		Name:        "etrade_get_summary",
		Description: "Get a summary of all accounts with cash, positions, and grand totals.",
		InputSchema: objectSchema(map[string]any{}),
	}, s.toolGetSummary)

	s.addTool(toolDefinition{
		Name:        "etrade_get_quote",
		Description: "Get stock quotes for one or more symbols.",
		InputSchema: objectSchema(map[string]any{
			"symbols": map[string]any{"type": "string", "description": "Comma-separated symbols, e.g. AAPL,MSFT"},
		}, "symbols"),
	}, s.toolGetQuote)

	s.addTool(toolDefinition{
		Name:        "etrade_lookup_symbol",
		Description: "Search for securities by name or partial symbol.",
		InputSchema: objectSchema(map[string]any{
			"search": map[string]any{"type": "string", "description": "Search term, e.g. apple"},
		}, "search"),
	}, s.toolLookupSymbol)

	s.addTool(toolDefinition{
		Name:        "etrade_list_orders",
		Description: "List orders for an account, optionally filtered by status.",
		InputSchema: objectSchema(map[string]any{
			"account_id_key": map[string]any{"type": "string", "description": "Account ID key from etrade_get_accounts"},
			"status":         map[string]any{"type": "string", "description": "Status filter: OPEN, EXECUTED, CANCELLED, ..."},
		}, "account_id_key"),
	}, s.toolListOrders)

	s.addTool(toolDefinition{
		Name:        "etrade_preview_order",
		Description: "Preview an equity order before placing it. Returns the previewId needed by etrade_place_order.",
		InputSchema: objectSchema(map[string]any{
			"account_id_key": map[string]any{"type": "string"},
			"symbol":         map[string]any{"type": "string"},
			"action":         map[string]any{"type": "string", "description": "BUY or SELL"},
			"quantity":       map[string]any{"type": "integer"},
			"price_type":     map[string]any{"type": "string", "description": "MARKET, LIMIT, STOP, STOP_LIMIT, TRAILING_STOP_PRCT"},
			"limit_price":    map[string]any{"type": "number"},
			"stop_price":     map[string]any{"type": "number"},
			"order_term":     map[string]any{"type": "string", "description": "GOOD_FOR_DAY or GOOD_UNTIL_CANCEL"},
		}, "account_id_key", "symbol", "action", "quantity"),
	}, s.toolPreviewOrder)

	s.addTool(toolDefinition{
		Name:        "etrade_place_order",
		Description: "Place a previewed equity order. Requires the previewId and clientOrderId from etrade_preview_order.",
		InputSchema: objectSchema(map[string]any{
			"account_id_key":  map[string]any{"type": "string"},
			"preview_id":      map[string]any{"type": "string"},
			"client_order_id": map[string]any{"type": "string"},
			"symbol":          map[string]any{"type": "string"},
			"action":          map[string]any{"type": "string", "description": "BUY or SELL"},
			"quantity":        map[string]any{"type": "integer"},
			"price_type":      map[string]any{"type": "string"},
			"limit_price":     map[string]any{"type": "number"},
			"stop_price":      map[string]any{"type": "number"},
			"order_term":      map[string]any{"type": "string"},
		}, "account_id_key", "preview_id", "client_order_id", "symbol", "action", "quantity"),
	}, s.toolPlaceOrder)

	s.addTool(toolDefinition{
		Name:        "etrade_cancel_order",
		Description: "Cancel an open order.",
		InputSchema: objectSchema(map[string]any{
			"account_id_key": map[string]any{"type": "string"},
			"order_id":       map[string]any{"type": "string"},
		}, "account_id_key", "order_id"),
	}, s.toolCancelOrder)
}

func (s *Server) addTool(def toolDefinition, handler toolHandler) {
	s.tools = append(s.tools, def)
	s.handlers[def.Name] = handler
}

// Authentication tools

func (s *Server) toolAuthStatus(ctx context.Context, _ json.RawMessage) any {
	status := s.sessionService.Status()
	if status.Authenticated {
		return map[string]any{
			"status":     "authenticated",
			"sandbox":    status.Environment == domain.EnvironmentSandbox,
			"token_date": status.TokenDate,
		}
	}

	grant, err := s.sessionService.BeginAuthorization(ctx)
	if err != nil {
		return errorPayload(err)
	}
	return map[string]any{
		"status":            "not_authenticated",
		"authorization_url": grant.AuthorizationURL,
		"instructions":      "Visit the URL, login, and call etrade_auth_callback with the verifier code.",
	}
}

func (s *Server) toolAuthCallback(ctx context.Context, args json.RawMessage) any {
	var params struct {
		Verifier string `json:"verifier"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.Verifier == "" {
		return errorPayload(fmt.Errorf("verifier is required"))
	}

	if err := s.sessionService.SupplyVerifier(params.Verifier); err != nil {
		return errorPayload(err)
	}
	if _, err := s.sessionService.CompleteAuthorization(ctx); err != nil {
		return errorPayload(err)
	}

	status := s.sessionService.Status()
	return map[string]any{
		"status":        "success",
		"authenticated": status.Authenticated,
		"sandbox":       status.Environment == domain.EnvironmentSandbox,
	}
}

// Account tools

func (s *Server) toolGetAccounts(ctx context.Context, _ json.RawMessage) any {
	accounts, err := s.brokerageService.ListAccounts(ctx)
	if err != nil {
		return errorPayload(err)
	}
	return map[string]any{"status": "success", "accounts": accounts}
}

func (s *Server) toolGetSummary(ctx context.Context, _ json.RawMessage) any {
	summary, err := s.brokerageService.Summary(ctx)
	if err != nil {
		return errorPayload(err)
	}
	return map[string]any{
		"status":   "success",
		"accounts": summary.Accounts,
		"totals":   summary.Totals,
	}
}

// Market data tools

func (s *Server) toolGetQuote(ctx context.Context, args json.RawMessage) any {
	var params struct {
		Symbols string `json:"symbols"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.Symbols == "" {
		return errorPayload(fmt.Errorf("symbols is required"))
	}

	quotes, err := s.brokerageService.Quotes(ctx, params.Symbols)
	if err != nil {
		return errorPayload(err)
	}
	return map[string]any{"status": "success", "quotes": quotes}
}

func (s *Server) toolLookupSymbol(ctx context.Context, args json.RawMessage) any {
	var params struct {
		Search string `json:"search"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.Search == "" {
		return errorPayload(fmt.Errorf("search is required"))
	}

	results, err := s.brokerageService.Lookup(ctx, params.Search)
	if err != nil {
		return errorPayload(err)
	}
	return map[string]any{"status": "success", "results": results}
}

// Order tools

func (s *Server) toolListOrders(ctx context.Context, args json.RawMessage) any {
	var params struct {
		AccountIDKey string `json:"account_id_key"`
		Status       string `json:"status"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.AccountIDKey == "" {
		return errorPayload(fmt.Errorf("account_id_key is required"))
	}

	orders, err := s.brokerageService.ListOrders(ctx, params.AccountIDKey, params.Status)
	if err != nil {
		return errorPayload(err)
	}
	return map[string]any{"status": "success", "orders": orders}
}

type orderArgs struct {
	AccountIDKey string  `json:"account_id_key"`
	Symbol       string  `json:"symbol"`
	Action       string  `json:"action"`
	Quantity     int     `json:"quantity"`
	PriceType    string  `json:"price_type"`
	LimitPrice   float64 `json:"limit_price"`
	StopPrice    float64 `json:"stop_price"`
	OrderTerm    string  `json:"order_term"`
}

func (a orderArgs) toOrderRequest() domain.OrderRequest {
	return domain.OrderRequest{
		Symbol:     a.Symbol,
		Action:     a.Action,
		Quantity:   a.Quantity,
		PriceType:  a.PriceType,
		LimitPrice: a.LimitPrice,
		StopPrice:  a.StopPrice,
		OrderTerm:  a.OrderTerm,
	}
}

func (s *Server) toolPreviewOrder(ctx context.Context, args json.RawMessage) any {
	var params orderArgs
	if err := json.Unmarshal(args, &params); err != nil || params.AccountIDKey == "" {
		return errorPayload(fmt.Errorf("account_id_key is required"))
	}

	order := params.toOrderRequest()
	preview, err := s.brokerageService.PreviewOrder(ctx, params.AccountIDKey, &order)
	if err != nil {
		return errorPayload(err)
	}
	return map[string]any{
		"status":        "success",
		"previewId":     preview.PreviewID,
		"clientOrderId": preview.ClientOrderID,
		"message":       "Call etrade_place_order with this previewId to execute.",
	}
}

func (s *Server) toolPlaceOrder(ctx context.Context, args json.RawMessage) any {
	var params struct {
		orderArgs
		PreviewID     string `json:"preview_id"`
		ClientOrderID string `json:"client_order_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.AccountIDKey == "" {
		return errorPayload(fmt.Errorf("account_id_key is required"))
	}

	req := domain.PlaceOrderRequest{
		OrderRequest:  params.toOrderRequest(),
		PreviewID:     params.PreviewID,
		ClientOrderID: params.ClientOrderID,
	}
	placed, err := s.brokerageService.PlaceOrder(ctx, params.AccountIDKey, &req)
	if err != nil {
		return errorPayload(err)
	}
	return map[string]any{
		"status":  "success",
		"orderId": placed.OrderID,
		"message": fmt.Sprintf("Order %s placed successfully.", placed.OrderID),
	}
}

func (s *Server) toolCancelOrder(ctx context.Context, args json.RawMessage) any {
	var params struct {
		AccountIDKey string `json:"account_id_key"`
		OrderID      string `json:"order_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.AccountIDKey == "" || params.OrderID == "" {
		return errorPayload(fmt.Errorf("account_id_key and order_id are required"))
	}

	if err := s.brokerageService.CancelOrder(ctx, params.AccountIDKey, params.OrderID); err != nil {
		return errorPayload(err)
	}
	return map[string]any{
		"status":  "success",
		"orderId": params.OrderID,
		"message": "Order cancelled.",
	}
}

// errorPayload shapes an error the way agents expect tool failures.
func errorPayload(err error) map[string]any {
	if errors.Is(err, domain.ErrNotAuthorized) {
		return map[string]any{
			"status": "error",
			"error":  "Not authenticated. Run etrade_auth_status to get auth URL.",
		}
	}
	if vendorErr, ok := domain.AsVendorError(err); ok {
		return map[string]any{
			"status":        "error",
			"error":         vendorErr.Error(),
			"vendor_status": vendorErr.Status,
		}
	}
	return map[string]any{"status": "error", "error": err.Error()}
}
