package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
)

// MockSender records requests without sending anything.
type MockSender struct {
	mu       sync.Mutex
	Requests []*http.Request
	Response *http.Response
	Err      error
}

func (m *MockSender) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

// MockOAuthFlow is a mock implementation of OAuthFlow for testing
type MockOAuthFlow struct {
	mu sync.Mutex

	RequestTokenPair *domain.TokenPair
	RequestTokenErr  error
	AccessTokenPair  *domain.TokenPair
	ExchangeErr      error
	RenewErr         error

	FetchCalls    int
	ExchangeCalls int
	RenewCalls    int
	SenderCalls   int

	// LastVerifier records what ExchangeVerifier was called with.
	LastVerifier string
}

// NewMockOAuthFlow creates a new MockOAuthFlow with usable defaults.
func NewMockOAuthFlow() *MockOAuthFlow {
	return &MockOAuthFlow{
		RequestTokenPair: &domain.TokenPair{Token: "request-token", TokenSecret: "request-secret"},
		AccessTokenPair:  &domain.TokenPair{Token: "access-token", TokenSecret: "access-secret"},
	}
}

func (m *MockOAuthFlow) FetchRequestToken(ctx context.Context) (*domain.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	if m.RequestTokenErr != nil {
		return nil, m.RequestTokenErr
	}
	pair := *m.RequestTokenPair
	return &pair, nil
}

func (m *MockOAuthFlow) AuthorizationURL(requestToken string) string {
	return "https://example.com/authorize?token=" + requestToken
}

func (m *MockOAuthFlow) ExchangeVerifier(ctx context.Context, requestToken *domain.TokenPair, verifier string) (*domain.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExchangeCalls++
	m.LastVerifier = verifier
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	pair := *m.AccessTokenPair
	return &pair, nil
}

func (m *MockOAuthFlow) Renew(ctx context.Context, sender driven.Sender) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RenewCalls++
	return m.RenewErr
}

func (m *MockOAuthFlow) NewSender(token, tokenSecret string) driven.Sender {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SenderCalls++
	return &MockSender{}
}
