package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/tradegate/internal/core/domain"
)

// MockBrokerageClient is a mock implementation of BrokerageClient for testing
type MockBrokerageClient struct {
	mu sync.Mutex

	Accounts  []domain.Account
	Balances  map[string]*domain.Balance
	Positions map[string][]domain.Position
	QuoteList []domain.Quote
	Lookups   []domain.LookupResult
	Orders    []domain.Order
	Preview   *domain.OrderPreview
	Placed    *domain.PlacedOrder

	Err error

	// BalanceErrs and PortfolioErrs inject per-account failures.
	BalanceErrs   map[string]error
	PortfolioErrs map[string]error

	Calls []string
}

// NewMockBrokerageClient creates a new MockBrokerageClient
func NewMockBrokerageClient() *MockBrokerageClient {
	return &MockBrokerageClient{
		Balances:      make(map[string]*domain.Balance),
		Positions:     make(map[string][]domain.Position),
		BalanceErrs:   make(map[string]error),
		PortfolioErrs: make(map[string]error),
	}
}

func (m *MockBrokerageClient) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockBrokerageClient) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	m.record("ListAccounts")
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Accounts, nil
}

func (m *MockBrokerageClient) Balance(ctx context.Context, accountIDKey string) (*domain.Balance, error) {
	m.record("Balance:" + accountIDKey)
	if m.Err != nil {
		return nil, m.Err
	}
	if err := m.BalanceErrs[accountIDKey]; err != nil {
		return nil, err
	}
	if bal, ok := m.Balances[accountIDKey]; ok {
		return bal, nil
	}
	return &domain.Balance{AccountIDKey: accountIDKey}, nil
}

func (m *MockBrokerageClient) Portfolio(ctx context.Context, accountIDKey string) ([]domain.Position, error) {
	m.record("Portfolio:" + accountIDKey)
	if m.Err != nil {
		return nil, m.Err
	}
	if err := m.PortfolioErrs[accountIDKey]; err != nil {
		return nil, err
	}
	return m.Positions[accountIDKey], nil
}

func (m *MockBrokerageClient) Quotes(ctx context.Context, symbols string) ([]domain.Quote, error) {
	m.record("Quotes:" + symbols)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.QuoteList, nil
}

func (m *MockBrokerageClient) Lookup(ctx context.Context, search string) ([]domain.LookupResult, error) {
	m.record("Lookup:" + search)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Lookups, nil
}

func (m *MockBrokerageClient) ListOrders(ctx context.Context, accountIDKey, status string) ([]domain.Order, error) {
	m.record("ListOrders:" + accountIDKey)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Orders, nil
}

func (m *MockBrokerageClient) PreviewOrder(ctx context.Context, accountIDKey string, req *domain.OrderRequest) (*domain.OrderPreview, error) {
	m.record("PreviewOrder:" + accountIDKey)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Preview != nil {
		return m.Preview, nil
	}
	return &domain.OrderPreview{PreviewID: "preview-1", ClientOrderID: "client-1"}, nil
}

func (m *MockBrokerageClient) PlaceOrder(ctx context.Context, accountIDKey string, req *domain.PlaceOrderRequest) (*domain.PlacedOrder, error) {
	m.record("PlaceOrder:" + accountIDKey)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Placed != nil {
		return m.Placed, nil
	}
	return &domain.PlacedOrder{OrderID: "order-1"}, nil
}

func (m *MockBrokerageClient) CancelOrder(ctx context.Context, accountIDKey, orderID string) error {
	m.record("CancelOrder:" + orderID)
	return m.Err
}
