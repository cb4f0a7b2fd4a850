package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/tradegate/internal/core/domain"
)

// MockTokenStore is a mock implementation of TokenStore for testing
type MockTokenStore struct {
	mu       sync.RWMutex
	snapshot *domain.TokenSnapshot

	SaveErr  error
	LoadErr  error
	ClearErr error

	SaveCalls  int
	ClearCalls int
}

// NewMockTokenStore creates a new MockTokenStore
func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{}
}

func (m *MockTokenStore) Load(ctx context.Context) (*domain.TokenSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.snapshot == nil {
		return nil, domain.ErrNotFound
	}
	snap := *m.snapshot
	return &snap, nil
}

func (m *MockTokenStore) Save(ctx context.Context, snapshot *domain.TokenSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	snap := *snapshot
	m.snapshot = &snap
	return nil
}

func (m *MockTokenStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.snapshot = nil
	return nil
}

// Helper methods for testing

func (m *MockTokenStore) Seed(snapshot *domain.TokenSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot
}

func (m *MockTokenStore) Snapshot() *domain.TokenSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
