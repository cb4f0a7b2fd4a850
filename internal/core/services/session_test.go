package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven/mocks"
)

// midMorning is a fixed Eastern instant well away from both the midnight
// boundary and the idle threshold.
var midMorning = time.Date(2025, 3, 14, 10, 0, 0, 0, eastern)

func newTestSessionService(t *testing.T) (*mocks.MockOAuthFlow, *mocks.MockTokenStore, *mocks.MockClock, *sessionService) {
	t.Helper()
	flow := mocks.NewMockOAuthFlow()
	store := mocks.NewMockTokenStore()
	clock := mocks.NewMockClock(midMorning)
	svc := NewSessionService(SessionConfig{
		Environment: domain.EnvironmentSandbox,
		Flow:        flow,
		Store:       store,
		Clock:       clock,
	}).(*sessionService)
	return flow, store, clock, svc
}

func authenticate(t *testing.T, svc *sessionService) {
	t.Helper()
	if _, err := svc.BeginAuthorization(context.Background()); err != nil {
		t.Fatalf("BeginAuthorization: %v", err)
	}
	if err := svc.SupplyVerifier("12345"); err != nil {
		t.Fatalf("SupplyVerifier: %v", err)
	}
	if _, err := svc.CompleteAuthorization(context.Background()); err != nil {
		t.Fatalf("CompleteAuthorization: %v", err)
	}
}

func TestSessionService_HandshakeOrdering(t *testing.T) {
	tests := []struct {
		name    string
		run     func(svc *sessionService) error
		wantErr error
	}{
		{
			name: "verifier before request token",
			run: func(svc *sessionService) error {
				return svc.SupplyVerifier("12345")
			},
			wantErr: domain.ErrNoRequestToken,
		},
		{
			name: "complete before request token",
			run: func(svc *sessionService) error {
				_, err := svc.CompleteAuthorization(context.Background())
				return err
			},
			wantErr: domain.ErrNoRequestToken,
		},
		{
			name: "complete before verifier",
			run: func(svc *sessionService) error {
				if _, err := svc.BeginAuthorization(context.Background()); err != nil {
					return err
				}
				_, err := svc.CompleteAuthorization(context.Background())
				return err
			},
			wantErr: domain.ErrNoVerifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, svc := newTestSessionService(t)
			err := tt.run(svc)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
			if svc.IsAuthenticated() {
				t.Error("service should not be authenticated after a failed handshake step")
			}
		})
	}
}

func TestSessionService_FullHandshake(t *testing.T) {
	flow, store, _, svc := newTestSessionService(t)

	grant, err := svc.BeginAuthorization(context.Background())
	if err != nil {
		t.Fatalf("BeginAuthorization: %v", err)
	}
	if grant.Token != "request-token" {
		t.Errorf("grant token = %q, want request-token", grant.Token)
	}
	if grant.AuthorizationURL == "" {
		t.Error("grant should carry an authorization URL")
	}

	if err := svc.SupplyVerifier("12345"); err != nil {
		t.Fatalf("SupplyVerifier: %v", err)
	}

	pair, err := svc.CompleteAuthorization(context.Background())
	if err != nil {
		t.Fatalf("CompleteAuthorization: %v", err)
	}
	if pair.Token != "access-token" || pair.TokenSecret != "access-secret" {
		t.Errorf("unexpected access pair: %+v", pair)
	}
	if flow.LastVerifier != "12345" {
		t.Errorf("exchange used verifier %q, want 12345", flow.LastVerifier)
	}

	if !svc.IsAuthenticated() {
		t.Error("service should be authenticated")
	}
	if svc.Sender() == nil {
		t.Error("sender should be built after the handshake")
	}

	status := svc.Status()
	if !status.Authenticated {
		t.Error("status should report authenticated")
	}
	if status.TokenDate != "2025-03-14" {
		t.Errorf("token date = %q, want 2025-03-14", status.TokenDate)
	}

	snap := store.Snapshot()
	if snap == nil {
		t.Fatal("snapshot should be persisted after the handshake")
	}
	if snap.AccessToken != "access-token" || snap.TokenDate != "2025-03-14" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.Environment != domain.EnvironmentSandbox {
		t.Errorf("snapshot environment = %q, want sandbox", snap.Environment)
	}
}

func TestSessionService_ExchangeFailureAllowsRetry(t *testing.T) {
	flow, _, _, svc := newTestSessionService(t)

	if _, err := svc.BeginAuthorization(context.Background()); err != nil {
		t.Fatalf("BeginAuthorization: %v", err)
	}
	if err := svc.SupplyVerifier("wrong"); err != nil {
		t.Fatalf("SupplyVerifier: %v", err)
	}

	flow.ExchangeErr = errors.New("verifier rejected")
	if _, err := svc.CompleteAuthorization(context.Background()); err == nil {
		t.Fatal("CompleteAuthorization should fail when the exchange fails")
	}
	if svc.IsAuthenticated() {
		t.Error("failed exchange must not authenticate")
	}

	// The request token survives the failure; a corrected verifier works
	// without restarting the handshake.
	flow.ExchangeErr = nil
	if err := svc.SupplyVerifier("12345"); err != nil {
		t.Fatalf("SupplyVerifier after failure: %v", err)
	}
	if _, err := svc.CompleteAuthorization(context.Background()); err != nil {
		t.Fatalf("CompleteAuthorization retry: %v", err)
	}
	if !svc.IsAuthenticated() {
		t.Error("retry should authenticate")
	}
}

func TestSessionService_EnsureReady_Unauthenticated(t *testing.T) {
	flow, _, _, svc := newTestSessionService(t)

	if svc.EnsureReady(context.Background()) {
		t.Error("EnsureReady should be false without a token")
	}
	if flow.RenewCalls != 0 {
		t.Errorf("renew calls = %d, want 0", flow.RenewCalls)
	}
}

func TestSessionService_EnsureReady_FreshTokenNoRenewal(t *testing.T) {
	flow, _, clock, svc := newTestSessionService(t)
	authenticate(t, svc)

	clock.Advance(30 * time.Minute)
	if !svc.EnsureReady(context.Background()) {
		t.Fatal("EnsureReady should be true for a fresh token")
	}
	if flow.RenewCalls != 0 {
		t.Errorf("renew calls = %d, want 0 within the idle threshold", flow.RenewCalls)
	}

	status := svc.Status()
	if got := status.LastUsed; !got.Equal(clock.Now().In(eastern)) {
		t.Errorf("last used = %v, want %v", got, clock.Now())
	}
}

func TestSessionService_EnsureReady_IdleRenewal(t *testing.T) {
	flow, _, clock, svc := newTestSessionService(t)
	authenticate(t, svc)

	clock.Advance(3 * time.Hour)
	if !svc.EnsureReady(context.Background()) {
		t.Fatal("EnsureReady should succeed when renewal succeeds")
	}
	if flow.RenewCalls != 1 {
		t.Errorf("renew calls = %d, want 1", flow.RenewCalls)
	}

	// LastUsed was refreshed, so an immediate second gate skips renewal.
	if !svc.EnsureReady(context.Background()) {
		t.Fatal("second EnsureReady should succeed")
	}
	if flow.RenewCalls != 1 {
		t.Errorf("renew calls = %d, want still 1", flow.RenewCalls)
	}
}

func TestSessionService_EnsureReady_RenewalFailureKeepsToken(t *testing.T) {
	flow, _, clock, svc := newTestSessionService(t)
	authenticate(t, svc)

	clock.Advance(3 * time.Hour)
	flow.RenewErr = errors.New("renew rejected")

	if svc.EnsureReady(context.Background()) {
		t.Error("EnsureReady should fail when renewal fails")
	}
	if !svc.IsAuthenticated() {
		t.Error("renewal failure must not drop the token")
	}

	// A later probe with a healthy vendor succeeds with the same token.
	flow.RenewErr = nil
	if !svc.EnsureReady(context.Background()) {
		t.Error("EnsureReady should succeed once renewal recovers")
	}
}

func TestSessionService_EnsureReady_MidnightExpiry(t *testing.T) {
	_, store, clock, svc := newTestSessionService(t)
	authenticate(t, svc)

	// Cross the Eastern midnight boundary.
	clock.Set(time.Date(2025, 3, 15, 0, 1, 0, 0, eastern))

	if svc.EnsureReady(context.Background()) {
		t.Error("EnsureReady should fail after the token date rolls over")
	}
	if svc.IsAuthenticated() {
		t.Error("expired token must be dropped")
	}
	if store.Snapshot() != nil {
		t.Error("expired snapshot must be cleared from the store")
	}
	if svc.Sender() != nil {
		t.Error("sender must be dropped with the token")
	}
}

func TestSessionService_RestoreFromSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *domain.TokenSnapshot
		wantAuth bool
	}{
		{
			name: "same day same environment resumes",
			snapshot: &domain.TokenSnapshot{
				AccessToken:       "saved-token",
				AccessTokenSecret: "saved-secret",
				LastUsed:          midMorning.Add(-time.Hour),
				TokenDate:         "2025-03-14",
				Environment:       domain.EnvironmentSandbox,
			},
			wantAuth: true,
		},
		{
			name: "stale date is discarded",
			snapshot: &domain.TokenSnapshot{
				AccessToken:       "saved-token",
				AccessTokenSecret: "saved-secret",
				LastUsed:          midMorning.AddDate(0, 0, -1),
				TokenDate:         "2025-03-13",
				Environment:       domain.EnvironmentSandbox,
			},
			wantAuth: false,
		},
		{
			name: "other environment is discarded",
			snapshot: &domain.TokenSnapshot{
				AccessToken:       "saved-token",
				AccessTokenSecret: "saved-secret",
				LastUsed:          midMorning.Add(-time.Hour),
				TokenDate:         "2025-03-14",
				Environment:       domain.EnvironmentProduction,
			},
			wantAuth: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := mocks.NewMockOAuthFlow()
			store := mocks.NewMockTokenStore()
			store.Seed(tt.snapshot)
			clock := mocks.NewMockClock(midMorning)

			svc := NewSessionService(SessionConfig{
				Environment: domain.EnvironmentSandbox,
				Flow:        flow,
				Store:       store,
				Clock:       clock,
			})

			if got := svc.IsAuthenticated(); got != tt.wantAuth {
				t.Errorf("IsAuthenticated = %t, want %t", got, tt.wantAuth)
			}
			if tt.wantAuth && svc.Sender() == nil {
				t.Error("resumed session should rebuild the sender")
			}
		})
	}
}

func TestSessionService_PersistenceFailureDoesNotFailHandshake(t *testing.T) {
	flow := mocks.NewMockOAuthFlow()
	store := mocks.NewMockTokenStore()
	store.SaveErr = errors.New("disk full")
	clock := mocks.NewMockClock(midMorning)

	svc := NewSessionService(SessionConfig{
		Environment: domain.EnvironmentSandbox,
		Flow:        flow,
		Store:       store,
		Clock:       clock,
	}).(*sessionService)

	authenticate(t, svc)
	if !svc.IsAuthenticated() {
		t.Error("handshake should succeed even when persistence fails")
	}
	if !svc.EnsureReady(context.Background()) {
		t.Error("EnsureReady should succeed even when persistence fails")
	}
}

func TestSessionService_BeginAuthorizationResetsVerifier(t *testing.T) {
	_, _, _, svc := newTestSessionService(t)

	if _, err := svc.BeginAuthorization(context.Background()); err != nil {
		t.Fatalf("BeginAuthorization: %v", err)
	}
	if err := svc.SupplyVerifier("stale"); err != nil {
		t.Fatalf("SupplyVerifier: %v", err)
	}

	// A new handshake invalidates the old verifier.
	if _, err := svc.BeginAuthorization(context.Background()); err != nil {
		t.Fatalf("second BeginAuthorization: %v", err)
	}
	if _, err := svc.CompleteAuthorization(context.Background()); !errors.Is(err, domain.ErrNoVerifier) {
		t.Errorf("got error %v, want ErrNoVerifier after restart", err)
	}
}
