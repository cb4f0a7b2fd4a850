package driving

import (
	"context"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
)

// SessionService owns the OAuth token lifecycle: the three-legged handshake,
// Eastern-midnight expiry, idle renewal, and persistence. Transport facades
// hold a reference injected by the composition root; there is no module-global
// session.
type SessionService interface {
	// BeginAuthorization fetches a fresh request token and returns it with
	// the URL the user must visit to approve access. Starting a new
	// handshake discards any verifier from a previous attempt.
	BeginAuthorization(ctx context.Context) (*domain.AuthorizationGrant, error)

	// SupplyVerifier stores the code the user obtained after approving
	// access. No network call. Fails with domain.ErrNoRequestToken if no
	// handshake is in flight.
	SupplyVerifier(code string) error

	// CompleteAuthorization exchanges the request token and verifier for an
	// access token, rebuilds the signed sender, and persists the snapshot.
	// On vendor rejection no prior state is cleared, so the caller may
	// supply a corrected verifier and retry.
	CompleteAuthorization(ctx context.Context) (*domain.TokenPair, error)

	// EnsureReady reports whether the session can sign API calls right now.
	// It is the authoritative gate before any vendor call: it clears tokens
	// past their Eastern calendar date, renews tokens idle beyond the
	// threshold, and refreshes last-used bookkeeping.
	EnsureReady(ctx context.Context) bool

	// IsAuthenticated reports whether an access token pair is held. Pure
	// read; does not check date or idle validity.
	IsAuthenticated() bool

	// Status returns a read-only view for status reporting.
	Status() domain.SessionStatus

	// Sender returns the authenticated request sender bound to the current
	// access token, or nil when unauthenticated.
	Sender() driven.Sender
}
