package driven

import (
	"context"

	"github.com/custodia-labs/tradegate/internal/core/domain"
)

// BrokerageClient is the signed passthrough to the vendor's trading and
// market-data endpoints. Implementations shape parameters into upstream
// query strings and decode the vendor's XML; they make no lifecycle
// decisions - callers gate every call on the session service first.
type BrokerageClient interface {
	// ListAccounts returns all brokerage accounts.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// Balance returns the computed balance for one account.
	Balance(ctx context.Context, accountIDKey string) (*domain.Balance, error)

	// Portfolio returns the positions held in one account.
	Portfolio(ctx context.Context, accountIDKey string) ([]domain.Position, error)

	// Quotes returns quotes for a comma-separated symbol list.
	Quotes(ctx context.Context, symbols string) ([]domain.Quote, error)

	// Lookup searches securities by name or partial symbol.
	Lookup(ctx context.Context, search string) ([]domain.LookupResult, error)

	// ListOrders returns orders for an account, optionally filtered by
	// status (OPEN, EXECUTED, CANCELLED, ...).
	ListOrders(ctx context.Context, accountIDKey, status string) ([]domain.Order, error)

	// PreviewOrder submits an order for preview and returns the preview ID
	// required to place it.
	PreviewOrder(ctx context.Context, accountIDKey string, req *domain.OrderRequest) (*domain.OrderPreview, error)

	// PlaceOrder places a previously previewed order.
	PlaceOrder(ctx context.Context, accountIDKey string, req *domain.PlaceOrderRequest) (*domain.PlacedOrder, error)

	// CancelOrder requests cancellation of an open order.
	CancelOrder(ctx context.Context, accountIDKey, orderID string) error
}
