package etrade

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
)

// Ensure Client implements the driven port
var _ driven.BrokerageClient = (*Client)(nil)

// SenderSource supplies the authenticated sender bound to the current access
// token. The session service implements it; the client never holds signing
// material itself, so a token swap or expiry takes effect immediately.
type SenderSource interface {
	Sender() driven.Sender
}

// ClientConfig configures the brokerage passthrough client.
type ClientConfig struct {
	// BaseURL overrides the environment-derived API base (host + /v1).
	// Used by tests.
	BaseURL string

	Environment domain.Environment
	Logger      *slog.Logger
}

// Client is the signed passthrough to the vendor's trading and market-data
// endpoints.
type Client struct {
	source  SenderSource
	baseURL string
	logger  *slog.Logger
}

// NewClient creates the passthrough client.
func NewClient(source SenderSource, cfg ClientConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = APIBaseURLFor(cfg.Environment)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		source:  source,
		baseURL: base,
		logger:  logger,
	}
}

// do issues one signed request and returns the response body. Non-2xx
// statuses become a VendorError carrying status and body verbatim.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	sender := c.source.Sender()
	if sender == nil {
		return nil, domain.ErrNotAuthorized
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := sender.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.VendorError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func decodeXML[T any](data []byte) (*T, error) {
	var out T
	if err := xml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode vendor response: %w", err)
	}
	return &out, nil
}

// ListAccounts returns all brokerage accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	data, err := c.do(ctx, http.MethodGet, "/accounts/list", nil, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := decodeXML[accountListResponse](data)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(parsed.Accounts))
	for _, a := range parsed.Accounts {
		accounts = append(accounts, domain.Account{
			AccountID:    a.AccountID,
			AccountIDKey: a.AccountIDKey,
			AccountMode:  a.AccountMode,
			AccountDesc:  a.AccountDesc,
			AccountType:  a.AccountType,
			AccountName:  a.AccountName,
		})
	}
	return accounts, nil
}

// Balance returns the computed balance for one account.
func (c *Client) Balance(ctx context.Context, accountIDKey string) (*domain.Balance, error) {
	query := url.Values{}
	query.Set("instType", "BROKERAGE")
	query.Set("realTimeNAV", "true")

	data, err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountIDKey)+"/balance", query, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := decodeXML[balanceResponse](data)
	if err != nil {
		return nil, err
	}

	return &domain.Balance{
		AccountIDKey:               accountIDKey,
		CashAvailableForInvestment: parsed.Computed.CashAvailableForInvestment,
		CashBuyingPower:            parsed.Computed.CashBuyingPower,
		TotalAccountValue:          parsed.Computed.RealTimeValues.TotalAccountValue,
	}, nil
}

// Portfolio returns the positions held in one account.
func (c *Client) Portfolio(ctx context.Context, accountIDKey string) ([]domain.Position, error) {
	data, err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountIDKey)+"/portfolio", nil, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := decodeXML[portfolioResponse](data)
	if err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(parsed.Positions))
	for _, p := range parsed.Positions {
		positions = append(positions, domain.Position{
			Symbol:       p.Product.Symbol,
			Quantity:     p.Quantity,
			LastTrade:    p.Quick.LastTrade,
			MarketValue:  p.MarketValue,
			TotalGain:    p.TotalGain,
			TotalGainPct: p.TotalGainPct,
		})
	}
	return positions, nil
}

// Quotes returns quotes for a comma-separated symbol list.
func (c *Client) Quotes(ctx context.Context, symbols string) ([]domain.Quote, error) {
	data, err := c.do(ctx, http.MethodGet, "/market/quote/"+url.PathEscape(symbols), nil, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := decodeXML[quoteResponse](data)
	if err != nil {
		return nil, err
	}

	quotes := make([]domain.Quote, 0, len(parsed.Quotes))
	for _, q := range parsed.Quotes {
		quotes = append(quotes, domain.Quote{
			Symbol:         q.Product.Symbol,
			LastTrade:      q.All.LastTrade,
			Bid:            q.All.Bid,
			Ask:            q.All.Ask,
			TotalVolume:    q.All.TotalVolume,
			ChangeClose:    q.All.ChangeClose,
			ChangeClosePct: q.All.ChangeClosePercentage,
		})
	}
	return quotes, nil
}

// Lookup searches securities by name or partial symbol.
func (c *Client) Lookup(ctx context.Context, search string) ([]domain.LookupResult, error) {
	data, err := c.do(ctx, http.MethodGet, "/market/lookup/"+url.PathEscape(search), nil, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := decodeXML[lookupResponse](data)
	if err != nil {
		return nil, err
	}

	results := make([]domain.LookupResult, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		results = append(results, domain.LookupResult{
			Symbol:      d.Symbol,
			Description: d.Description,
			Type:        d.Type,
		})
	}
	return results, nil
}

// ListOrders returns orders for an account, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, accountIDKey, status string) ([]domain.Order, error) {
	var query url.Values
	if status != "" {
		query = url.Values{}
		query.Set("status", status)
	}

	data, err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountIDKey)+"/orders", query, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := decodeXML[ordersResponse](data)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(parsed.Orders))
	for _, o := range parsed.Orders {
		order := domain.Order{
			OrderID:   o.OrderID,
			OrderType: o.OrderType,
		}
		if len(o.Details) > 0 {
			detail := o.Details[0]
			order.Status = detail.Status
			order.PriceType = detail.PriceType
			if len(detail.Instruments) > 0 {
				order.Symbol = detail.Instruments[0].Product.Symbol
				order.Quantity = detail.Instruments[0].OrderedQuantity
			}
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// PreviewOrder submits an order for preview and returns the preview ID
// required to place it.
func (c *Client) PreviewOrder(ctx context.Context, accountIDKey string, req *domain.OrderRequest) (*domain.OrderPreview, error) {
	clientOrderID := c.newClientOrderID()
	body := previewOrderRequestJSON{
		PreviewOrderRequest: buildOrderBody(req, clientOrderID, nil),
	}

	data, err := c.do(ctx, http.MethodPost, "/accounts/"+url.PathEscape(accountIDKey)+"/orders/preview", nil, body)
	if err != nil {
		return nil, err
	}
	parsed, err := decodeXML[previewOrderResponse](data)
	if err != nil {
		return nil, err
	}
	if len(parsed.PreviewIDs) == 0 {
		return nil, fmt.Errorf("preview response missing previewId")
	}

	return &domain.OrderPreview{
		PreviewID:     parsed.PreviewIDs[0].PreviewID,
		ClientOrderID: clientOrderID,
	}, nil
}

// PlaceOrder places a previously previewed order.
func (c *Client) PlaceOrder(ctx context.Context, accountIDKey string, req *domain.PlaceOrderRequest) (*domain.PlacedOrder, error) {
	body := placeOrderRequestJSON{
		PlaceOrderRequest: buildOrderBody(&req.OrderRequest, req.ClientOrderID, []previewIDJSON{{PreviewID: req.PreviewID}}),
	}

	data, err := c.do(ctx, http.MethodPost, "/accounts/"+url.PathEscape(accountIDKey)+"/orders/place", nil, body)
	if err != nil {
		return nil, err
	}
	parsed, err := decodeXML[placeOrderResponse](data)
	if err != nil {
		return nil, err
	}
	if len(parsed.OrderIDs) == 0 {
		return nil, fmt.Errorf("place response missing orderId")
	}

	return &domain.PlacedOrder{OrderID: parsed.OrderIDs[0].OrderID}, nil
}

// CancelOrder requests cancellation of an open order.
func (c *Client) CancelOrder(ctx context.Context, accountIDKey, orderID string) error {
	var body cancelOrderRequestJSON
	body.CancelOrderRequest.OrderID = orderID

	_, err := c.do(ctx, http.MethodPut, "/accounts/"+url.PathEscape(accountIDKey)+"/orders/cancel", nil, body)
	return err
}

// nowUnix is a seam for deterministic client order IDs in tests.
var nowUnix = func() int64 { return time.Now().Unix() }

// newClientOrderID generates the vendor-required client order ID.
func (c *Client) newClientOrderID() string {
	return "gw-" + strconv.FormatInt(nowUnix(), 10)
}

func buildOrderBody(req *domain.OrderRequest, clientOrderID string, previewIDs []previewIDJSON) orderRequestBodyJSON {
	entry := orderEntryJSON{
		AllOrNone:     "false",
		PriceType:     req.PriceType,
		OrderTerm:     req.OrderTerm,
		MarketSession: "REGULAR",
		Instrument: []orderItemJSON{{
			Product:      productJSON{SecurityType: "EQ", Symbol: req.Symbol},
			OrderAction:  req.Action,
			QuantityType: "QUANTITY",
			Quantity:     strconv.Itoa(req.Quantity),
		}},
	}
	if req.LimitPrice > 0 {
		entry.LimitPrice = strconv.FormatFloat(req.LimitPrice, 'f', -1, 64)
	}
	if req.StopPrice > 0 {
		entry.StopPrice = strconv.FormatFloat(req.StopPrice, 'f', -1, 64)
	}

	return orderRequestBodyJSON{
		OrderType:     "EQ",
		ClientOrderID: clientOrderID,
		PreviewIDs:    previewIDs,
		Order:         []orderEntryJSON{entry},
	}
}
