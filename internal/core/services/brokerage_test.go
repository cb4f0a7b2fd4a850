package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/tradegate/internal/core/ports/driving"
)

// stubSession is a driving.SessionService with a fixed readiness answer.
type stubSession struct {
	ready bool
}

func (s *stubSession) BeginAuthorization(ctx context.Context) (*domain.AuthorizationGrant, error) {
	return nil, nil
}
func (s *stubSession) SupplyVerifier(code string) error { return nil }
func (s *stubSession) CompleteAuthorization(ctx context.Context) (*domain.TokenPair, error) {
	return nil, nil
}
func (s *stubSession) EnsureReady(ctx context.Context) bool { return s.ready }
func (s *stubSession) IsAuthenticated() bool                { return s.ready }
func (s *stubSession) Status() domain.SessionStatus {
	return domain.SessionStatus{Authenticated: s.ready}
}
func (s *stubSession) Sender() driven.Sender { return nil }

func newTestBrokerageService(ready bool) (*mocks.MockBrokerageClient, driving.BrokerageService) {
	client := mocks.NewMockBrokerageClient()
	svc := NewBrokerageService(BrokerageConfig{
		Session: &stubSession{ready: ready},
		Client:  client,
	})
	return client, svc
}

func TestBrokerageService_GatesOnSession(t *testing.T) {
	client, svc := newTestBrokerageService(false)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"ListAccounts", func() error { _, err := svc.ListAccounts(ctx); return err }},
		{"Summary", func() error { _, err := svc.Summary(ctx); return err }},
		{"Balance", func() error { _, err := svc.Balance(ctx, "acct-1"); return err }},
		{"Portfolio", func() error { _, err := svc.Portfolio(ctx, "acct-1"); return err }},
		{"Quotes", func() error { _, err := svc.Quotes(ctx, "AAPL"); return err }},
		{"Lookup", func() error { _, err := svc.Lookup(ctx, "apple"); return err }},
		{"ListOrders", func() error { _, err := svc.ListOrders(ctx, "acct-1", ""); return err }},
		{"PreviewOrder", func() error {
			_, err := svc.PreviewOrder(ctx, "acct-1", &domain.OrderRequest{Symbol: "AAPL", Action: "BUY", Quantity: 1})
			return err
		}},
		{"PlaceOrder", func() error {
			_, err := svc.PlaceOrder(ctx, "acct-1", &domain.PlaceOrderRequest{
				OrderRequest:  domain.OrderRequest{Symbol: "AAPL", Action: "BUY", Quantity: 1},
				PreviewID:     "p-1",
				ClientOrderID: "c-1",
			})
			return err
		}},
		{"CancelOrder", func() error { return svc.CancelOrder(ctx, "acct-1", "o-1") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, domain.ErrNotAuthorized) {
				t.Errorf("got error %v, want ErrNotAuthorized", err)
			}
		})
	}

	if len(client.Calls) != 0 {
		t.Errorf("client should never be called when unauthenticated, got %v", client.Calls)
	}
}

func TestBrokerageService_OrderValidation(t *testing.T) {
	client, svc := newTestBrokerageService(true)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"preview without symbol", func() error {
			_, err := svc.PreviewOrder(ctx, "acct-1", &domain.OrderRequest{Action: "BUY", Quantity: 1})
			return err
		}},
		{"preview with zero quantity", func() error {
			_, err := svc.PreviewOrder(ctx, "acct-1", &domain.OrderRequest{Symbol: "AAPL", Action: "BUY"})
			return err
		}},
		{"place without preview id", func() error {
			_, err := svc.PlaceOrder(ctx, "acct-1", &domain.PlaceOrderRequest{
				OrderRequest: domain.OrderRequest{Symbol: "AAPL", Action: "BUY", Quantity: 1},
			})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("got error %v, want ErrInvalidInput", err)
			}
		})
	}

	if len(client.Calls) != 0 {
		t.Errorf("invalid orders must not reach the client, got %v", client.Calls)
	}
}

func TestBrokerageService_PreviewNormalizesDefaults(t *testing.T) {
	_, svc := newTestBrokerageService(true)

	req := &domain.OrderRequest{Symbol: "AAPL", Action: "BUY", Quantity: 5}
	if _, err := svc.PreviewOrder(context.Background(), "acct-1", req); err != nil {
		t.Fatalf("PreviewOrder: %v", err)
	}
	if req.PriceType != domain.PriceTypeMarket {
		t.Errorf("price type = %q, want MARKET default", req.PriceType)
	}
	if req.OrderTerm != domain.OrderTermGoodForDay {
		t.Errorf("order term = %q, want GOOD_FOR_DAY default", req.OrderTerm)
	}
}

func TestBrokerageService_Summary(t *testing.T) {
	client, svc := newTestBrokerageService(true)
	client.Accounts = []domain.Account{
		{AccountIDKey: "acct-1", AccountDesc: "Individual"},
		{AccountIDKey: "acct-2", AccountDesc: "IRA"},
	}
	client.Balances["acct-1"] = &domain.Balance{AccountIDKey: "acct-1", CashAvailableForInvestment: 1000}
	client.Balances["acct-2"] = &domain.Balance{AccountIDKey: "acct-2", CashAvailableForInvestment: 500}
	client.Positions["acct-1"] = []domain.Position{
		{Symbol: "AAPL", Quantity: 10, MarketValue: 2000, TotalGain: 150},
		{Symbol: "MSFT", Quantity: 5, MarketValue: 1500, TotalGain: -50},
	}

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if len(summary.Accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(summary.Accounts))
	}

	first := summary.Accounts[0]
	if first.Cash != 1000 || first.PortfolioValue != 3500 || first.TotalValue != 4500 {
		t.Errorf("unexpected first account figures: %+v", first)
	}
	if first.TotalGain != 100 {
		t.Errorf("first account gain = %v, want 100", first.TotalGain)
	}

	if summary.Totals.Cash != 1500 {
		t.Errorf("total cash = %v, want 1500", summary.Totals.Cash)
	}
	if summary.Totals.TotalValue != 5000 {
		t.Errorf("total value = %v, want 5000", summary.Totals.TotalValue)
	}
}

func TestBrokerageService_SummaryToleratesPartialFailures(t *testing.T) {
	client, svc := newTestBrokerageService(true)
	client.Accounts = []domain.Account{
		{AccountIDKey: "acct-1"},
		{AccountIDKey: "acct-2"},
	}
	client.Balances["acct-2"] = &domain.Balance{AccountIDKey: "acct-2", CashAvailableForInvestment: 500}
	client.BalanceErrs["acct-1"] = errors.New("balance unavailable")
	client.PortfolioErrs["acct-1"] = errors.New("portfolio unavailable")

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if len(summary.Accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(summary.Accounts))
	}
	if summary.Accounts[0].Cash != 0 || summary.Accounts[0].TotalValue != 0 {
		t.Errorf("failed account should degrade to zeros: %+v", summary.Accounts[0])
	}
	if summary.Totals.Cash != 500 {
		t.Errorf("total cash = %v, want 500", summary.Totals.Cash)
	}
}
