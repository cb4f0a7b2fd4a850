// Package tokenfile persists the access-token snapshot as a single JSON file
// in the user's home directory. This is the default store: the gateway is a
// single-user local process and the snapshot must survive restarts within
// the same Eastern calendar day.
package tokenfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
)

// Ensure Store implements the driven port
var _ driven.TokenStore = (*Store)(nil)

const (
	defaultDirName  = ".tradegate"
	defaultFileName = "tokens.json"

	// The snapshot contains a live trading credential; owner-only access.
	fileMode = 0o600
	dirMode  = 0o700
)

// Store is a file-backed TokenStore.
type Store struct {
	path string
}

// NewStore creates a Store writing to the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns ~/.tradegate/tokens.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultDirName, defaultFileName), nil
}

// Load reads the snapshot. Returns domain.ErrNotFound when the file does
// not exist.
func (s *Store) Load(_ context.Context) (*domain.TokenSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var snap domain.TokenSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &snap, nil
}

// Save writes the snapshot atomically: a temp file in the same directory is
// renamed over the target so a crash never leaves a truncated snapshot.
func (s *Store) Save(_ context.Context, snapshot *domain.TokenSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// Clear removes the token file.
func (s *Store) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
