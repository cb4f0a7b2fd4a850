package services

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
	"github.com/custodia-labs/tradegate/internal/core/ports/driving"
)

// Ensure brokerageService implements BrokerageService
var _ driving.BrokerageService = (*brokerageService)(nil)

// BrokerageConfig holds dependencies for the brokerage service.
type BrokerageConfig struct {
	Session driving.SessionService
	Client  driven.BrokerageClient
	Logger  *slog.Logger
}

// brokerageService gates every passthrough call on the session service and
// delegates to the vendor client. It holds no state of its own.
type brokerageService struct {
	session driving.SessionService
	client  driven.BrokerageClient
	logger  *slog.Logger
}

// NewBrokerageService creates the trading/market-data passthrough service.
func NewBrokerageService(cfg BrokerageConfig) driving.BrokerageService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &brokerageService{
		session: cfg.Session,
		client:  cfg.Client,
		logger:  logger,
	}
}

// ready runs the session gate shared by every operation.
func (s *brokerageService) ready(ctx context.Context) error {
	if !s.session.EnsureReady(ctx) {
		return domain.ErrNotAuthorized
	}
	return nil
}

// ListAccounts returns all brokerage accounts.
func (s *brokerageService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.client.ListAccounts(ctx)
}

// Summary builds the all-accounts overview: each account with its cash
// balance and positions, plus grand totals. Per-account balance or portfolio
// failures degrade that account to zeros rather than failing the whole
// summary, matching the vendor's partial-availability behaviour.
func (s *brokerageService) Summary(ctx context.Context) (*domain.Summary, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	accounts, err := s.client.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{Accounts: make([]domain.AccountSummary, 0, len(accounts))}
	for _, account := range accounts {
		entry := domain.AccountSummary{Account: account, Positions: []domain.Position{}}

		balance, err := s.client.Balance(ctx, account.AccountIDKey)
		if err != nil {
			s.logger.Warn("balance unavailable", "account", account.AccountIDKey, "error", err)
		} else {
			entry.Cash = balance.CashAvailableForInvestment
		}

		positions, err := s.client.Portfolio(ctx, account.AccountIDKey)
		if err != nil {
			s.logger.Warn("portfolio unavailable", "account", account.AccountIDKey, "error", err)
		} else {
			for _, position := range positions {
				entry.Positions = append(entry.Positions, position)
				entry.PortfolioValue += position.MarketValue
				entry.TotalGain += position.TotalGain
			}
		}

		entry.TotalValue = entry.Cash + entry.PortfolioValue

		summary.Accounts = append(summary.Accounts, entry)
		summary.Totals.Cash += entry.Cash
		summary.Totals.PortfolioValue += entry.PortfolioValue
		summary.Totals.TotalValue += entry.TotalValue
		summary.Totals.TotalGain += entry.TotalGain
	}

	return summary, nil
}

// Balance returns the computed balance for one account.
func (s *brokerageService) Balance(ctx context.Context, accountIDKey string) (*domain.Balance, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.client.Balance(ctx, accountIDKey)
}

// Portfolio returns the positions held in one account.
func (s *brokerageService) Portfolio(ctx context.Context, accountIDKey string) ([]domain.Position, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.client.Portfolio(ctx, accountIDKey)
}

// Quotes returns quotes for a comma-separated symbol list.
func (s *brokerageService) Quotes(ctx context.Context, symbols string) ([]domain.Quote, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.client.Quotes(ctx, symbols)
}

// Lookup searches securities by name or partial symbol.
func (s *brokerageService) Lookup(ctx context.Context, search string) ([]domain.LookupResult, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.client.Lookup(ctx, search)
}

// ListOrders returns orders for an account, optionally filtered by status.
func (s *brokerageService) ListOrders(ctx context.Context, accountIDKey, status string) ([]domain.Order, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.client.ListOrders(ctx, accountIDKey, status)
}

// PreviewOrder submits an order for preview.
func (s *brokerageService) PreviewOrder(ctx context.Context, accountIDKey string, req *domain.OrderRequest) (*domain.OrderPreview, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	req.Normalize()
	return s.client.PreviewOrder(ctx, accountIDKey, req)
}

// PlaceOrder places a previously previewed order.
func (s *brokerageService) PlaceOrder(ctx context.Context, accountIDKey string, req *domain.PlaceOrderRequest) (*domain.PlacedOrder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	req.Normalize()
	return s.client.PlaceOrder(ctx, accountIDKey, req)
}

// CancelOrder requests cancellation of an open order.
func (s *brokerageService) CancelOrder(ctx context.Context, accountIDKey, orderID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.client.CancelOrder(ctx, accountIDKey, orderID)
}
