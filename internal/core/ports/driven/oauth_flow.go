package driven

import (
	"context"
	"net/http"

	"github.com/custodia-labs/tradegate/internal/core/domain"
)

// Sender issues HTTP requests signed with a held token pair. *http.Client
// satisfies it. Transport facades obtain a Sender from the session service
// and never see the signing material.
type Sender interface {
	Do(req *http.Request) (*http.Response, error)
}

// OAuthFlow performs the vendor's OAuth1 operations. Implementations own the
// endpoint URLs and request signing; the session service owns all state and
// lifecycle decisions.
type OAuthFlow interface {
	// FetchRequestToken performs step 1 of the handshake: a signed call to
	// the request-token endpoint using the consumer credentials and the
	// out-of-band callback marker.
	FetchRequestToken(ctx context.Context) (*domain.TokenPair, error)

	// AuthorizationURL builds the user-facing approval URL for a request
	// token. Not itself called by the gateway.
	AuthorizationURL(requestToken string) string

	// ExchangeVerifier performs step 3: trades the request token plus the
	// user-supplied verifier for an access token pair.
	ExchangeVerifier(ctx context.Context, requestToken *domain.TokenPair, verifier string) (*domain.TokenPair, error)

	// Renew confirms continued validity of the access token behind the
	// given sender via the renew-access-token endpoint.
	Renew(ctx context.Context, sender Sender) error

	// NewSender returns a Sender that signs every request with the consumer
	// credentials and the given access token pair.
	NewSender(token, tokenSecret string) Sender
}
