package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
	"github.com/custodia-labs/tradegate/internal/core/ports/driving"
)

// Ensure sessionService implements SessionService
var _ driving.SessionService = (*sessionService)(nil)

// idleRenewalThreshold is how long an access token may sit unused before it
// must be renewed against the vendor before further use.
const idleRenewalThreshold = 2 * time.Hour

// eastern is the vendor's token-expiry time zone. Tokens die at midnight
// US Eastern regardless of server locale.
var eastern = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(fmt.Sprintf("load America/New_York: %v", err))
	}
	return loc
}()

// SessionConfig holds dependencies for the session service.
type SessionConfig struct {
	// Environment the gateway is configured for. A persisted token from the
	// other environment is never accepted.
	Environment domain.Environment

	// Flow performs the vendor's OAuth1 operations.
	Flow driven.OAuthFlow

	// Store persists the access-token snapshot across restarts.
	Store driven.TokenStore

	// Clock supplies "now". Defaults to the system clock.
	Clock driven.Clock

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// sessionService implements the SessionService interface. All mutable state
// is guarded by mu; a renewal and a date-expiry check must never race.
type sessionService struct {
	env    domain.Environment
	flow   driven.OAuthFlow
	store  driven.TokenStore
	clock  driven.Clock
	logger *slog.Logger

	mu           sync.Mutex
	requestToken *domain.TokenPair
	verifier     string
	access       *domain.AccessToken
	sender       driven.Sender
}

// NewSessionService creates the session service and attempts to resume a
// persisted token. A snapshot is accepted only if its environment matches the
// configuration and its token date is today's Eastern date; anything else is
// discarded silently and the user must authorize again.
func NewSessionService(cfg SessionConfig) driving.SessionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = driven.SystemClock{}
	}

	s := &sessionService{
		env:    cfg.Environment,
		flow:   cfg.Flow,
		store:  cfg.Store,
		clock:  clock,
		logger: logger,
	}
	s.restore()
	return s
}

// easternNow returns the current time in the vendor's expiry time zone.
// Every date and idle comparison in this file goes through here.
func (s *sessionService) easternNow() time.Time {
	return s.clock.Now().In(eastern)
}

func (s *sessionService) easternDate() string {
	return s.easternNow().Format(domain.DateLayout)
}

// restore loads a persisted snapshot, if any, and rebuilds the signed sender.
func (s *sessionService) restore() {
	snap, err := s.store.Load(context.Background())
	if err != nil {
		if err != domain.ErrNotFound {
			s.logger.Warn("failed to load saved tokens", "error", err)
		}
		return
	}

	if snap.Environment != s.env {
		s.logger.Info("saved tokens are for a different environment",
			"saved", snap.Environment, "configured", s.env)
		return
	}
	if snap.TokenDate != s.easternDate() {
		s.logger.Info("saved tokens expired",
			"token_date", snap.TokenDate, "today", s.easternDate())
		return
	}

	s.access = &domain.AccessToken{
		TokenPair:   domain.TokenPair{Token: snap.AccessToken, TokenSecret: snap.AccessTokenSecret},
		TokenDate:   snap.TokenDate,
		LastUsed:    snap.LastUsed,
		Environment: snap.Environment,
	}
	s.sender = s.flow.NewSender(snap.AccessToken, snap.AccessTokenSecret)
	s.logger.Info("resumed saved session", "token_date", snap.TokenDate)
}

// BeginAuthorization starts the handshake: step 1 of the OAuth flow.
func (s *sessionService) BeginAuthorization(ctx context.Context) (*domain.AuthorizationGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requestToken, err := s.flow.FetchRequestToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch request token: %w", err)
	}

	s.requestToken = requestToken
	s.verifier = ""

	s.logger.Info("obtained request token")
	return &domain.AuthorizationGrant{
		Token:            requestToken.Token,
		TokenSecret:      requestToken.TokenSecret,
		AuthorizationURL: s.flow.AuthorizationURL(requestToken.Token),
	}, nil
}

// SupplyVerifier stores the user's verifier code against the in-flight
// request-token session.
func (s *sessionService) SupplyVerifier(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requestToken == nil {
		return domain.ErrNoRequestToken
	}
	s.verifier = code
	s.logger.Info("verifier set")
	return nil
}

// CompleteAuthorization exchanges the request token and verifier for an
// access token: step 3 of the OAuth flow.
func (s *sessionService) CompleteAuthorization(ctx context.Context) (*domain.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requestToken == nil {
		return nil, domain.ErrNoRequestToken
	}
	if s.verifier == "" {
		return nil, domain.ErrNoVerifier
	}

	accessToken, err := s.flow.ExchangeVerifier(ctx, s.requestToken, s.verifier)
	if err != nil {
		// Leave the request token and verifier in place; the user may retry
		// with a corrected verifier.
		return nil, fmt.Errorf("exchange verifier: %w", err)
	}

	now := s.easternNow()
	s.access = &domain.AccessToken{
		TokenPair:   *accessToken,
		TokenDate:   now.Format(domain.DateLayout),
		LastUsed:    now,
		Environment: s.env,
	}
	s.sender = s.flow.NewSender(accessToken.Token, accessToken.TokenSecret)
	s.requestToken = nil
	s.verifier = ""

	s.persistLocked(ctx)
	s.logger.Info("access token obtained", "token_date", s.access.TokenDate)

	pair := s.access.TokenPair
	return &pair, nil
}

// EnsureReady is the gate every outbound API call passes through first.
func (s *sessionService) EnsureReady(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.access == nil {
		return false
	}

	// Tokens die at midnight Eastern; an environment switch invalidates
	// them outright.
	if s.access.Environment != s.env || s.access.TokenDate != s.easternDate() {
		s.logger.Info("access token expired", "token_date", s.access.TokenDate)
		s.clearLocked(ctx)
		return false
	}

	now := s.easternNow()
	if now.Sub(s.access.LastUsed) > idleRenewalThreshold {
		s.logger.Info("access token idle, renewing")
		if err := s.flow.Renew(ctx, s.sender); err != nil {
			// The token may still be good; leave it for a later probe.
			s.logger.Warn("token renewal failed", "error", err)
			return false
		}
	}

	s.access.LastUsed = now
	s.persistLocked(ctx)
	return true
}

// IsAuthenticated reports whether an access token pair is held.
func (s *sessionService) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access != nil
}

// Status returns a read-only view of the session.
func (s *sessionService) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.SessionStatus{Environment: s.env}
	if s.access != nil {
		status.Authenticated = true
		status.TokenDate = s.access.TokenDate
		status.LastUsed = s.access.LastUsed
	}
	return status
}

// Sender returns the authenticated request sender, or nil.
func (s *sessionService) Sender() driven.Sender {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sender
}

// persistLocked saves the current snapshot. Persistence failures are logged
// and never fail the operation; only cross-restart resumption is lost.
// Caller must hold mu.
func (s *sessionService) persistLocked(ctx context.Context) {
	if s.access == nil {
		return
	}
	snap := &domain.TokenSnapshot{
		AccessToken:       s.access.Token,
		AccessTokenSecret: s.access.TokenSecret,
		LastUsed:          s.access.LastUsed,
		TokenDate:         s.access.TokenDate,
		Environment:       s.access.Environment,
	}
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Warn("failed to save tokens", "error", err)
	}
}

// clearLocked drops the access token, the sender, and the persisted
// snapshot. Caller must hold mu.
func (s *sessionService) clearLocked(ctx context.Context) {
	s.access = nil
	s.sender = nil
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear saved tokens", "error", err)
	}
}
