package driven

import (
	"context"

	"github.com/custodia-labs/tradegate/internal/core/domain"
)

// TokenStore persists the single access-token snapshot across restarts.
// The store holds at most one record; the session service is the only writer.
type TokenStore interface {
	// Load retrieves the persisted snapshot.
	// Returns domain.ErrNotFound when nothing is stored.
	Load(ctx context.Context) (*domain.TokenSnapshot, error)

	// Save stores the snapshot, replacing any previous one.
	Save(ctx context.Context, snapshot *domain.TokenSnapshot) error

	// Clear removes the stored snapshot. Clearing an empty store is not an
	// error.
	Clear(ctx context.Context) error
}
