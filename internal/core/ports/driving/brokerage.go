package driving

import (
	"context"

	"github.com/custodia-labs/tradegate/internal/core/domain"
)

// BrokerageService exposes the trading and market-data passthrough to the
// transport facades. Every operation passes through the session gate first
// and returns domain.ErrNotAuthorized when the session is not usable.
type BrokerageService interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	Summary(ctx context.Context) (*domain.Summary, error)
	Balance(ctx context.Context, accountIDKey string) (*domain.Balance, error)
	Portfolio(ctx context.Context, accountIDKey string) ([]domain.Position, error)
	Quotes(ctx context.Context, symbols string) ([]domain.Quote, error)
	Lookup(ctx context.Context, search string) ([]domain.LookupResult, error)
	ListOrders(ctx context.Context, accountIDKey, status string) ([]domain.Order, error)
	PreviewOrder(ctx context.Context, accountIDKey string, req *domain.OrderRequest) (*domain.OrderPreview, error)
	PlaceOrder(ctx context.Context, accountIDKey string, req *domain.PlaceOrderRequest) (*domain.PlacedOrder, error)
	CancelOrder(ctx context.Context, accountIDKey, orderID string) error
}
