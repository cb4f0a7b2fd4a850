package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore implements driven.TokenStore on PostgreSQL. The store is scoped
// to one environment so a sandbox snapshot can never shadow a production one.
type TokenStore struct {
	db  *DB
	env domain.Environment
}

// NewTokenStore creates a PostgreSQL-backed TokenStore for one environment.
func NewTokenStore(db *DB, env domain.Environment) *TokenStore {
	return &TokenStore{db: db, env: env}
}

// Load retrieves the snapshot for this environment.
func (s *TokenStore) Load(ctx context.Context) (*domain.TokenSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT access_token, access_token_secret, last_used, token_date
		FROM oauth_tokens
		WHERE environment = $1`, string(s.env))

	snap := domain.TokenSnapshot{Environment: s.env}
	err := row.Scan(&snap.AccessToken, &snap.AccessTokenSecret, &snap.LastUsed, &snap.TokenDate)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return &snap, nil
}

// Save upserts the snapshot row for this environment.
func (s *TokenStore) Save(ctx context.Context, snapshot *domain.TokenSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_tokens (environment, access_token, access_token_secret, last_used, token_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (environment) DO UPDATE SET
			access_token        = EXCLUDED.access_token,
			access_token_secret = EXCLUDED.access_token_secret,
			last_used           = EXCLUDED.last_used,
			token_date          = EXCLUDED.token_date,
			updated_at          = now()`,
		string(s.env), snapshot.AccessToken, snapshot.AccessTokenSecret, snapshot.LastUsed, snapshot.TokenDate)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Clear removes the snapshot row for this environment.
func (s *TokenStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE environment = $1`, string(s.env))
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
