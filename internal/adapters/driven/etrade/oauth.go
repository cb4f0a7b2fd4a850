package etrade

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dghubble/oauth1"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
)

// Ensure OAuthFlow implements the driven port
var _ driven.OAuthFlow = (*OAuthFlow)(nil)

// OAuthConfig configures the OAuth1 flow adapter.
type OAuthConfig struct {
	Credentials domain.Credentials

	// BaseURL overrides the environment-derived vendor host. Used by tests
	// to point the flow at a stub server.
	BaseURL string

	// AuthorizeURL overrides the user-facing approval page.
	AuthorizeURL string
}

// OAuthFlow performs the vendor's OAuth1 operations using HMAC-SHA1 signed
// requests with the signature in the Authorization header.
type OAuthFlow struct {
	creds        domain.Credentials
	config       *oauth1.Config
	authorizeURL string
	renewURL     string
}

// NewOAuthFlow creates the flow adapter for the configured environment.
func NewOAuthFlow(cfg OAuthConfig) *OAuthFlow {
	base := cfg.BaseURL
	if base == "" {
		base = BaseURLFor(cfg.Credentials.Environment)
	}
	authorizeURL := cfg.AuthorizeURL
	if authorizeURL == "" {
		authorizeURL = defaultAuthorizeURL
	}

	return &OAuthFlow{
		creds:        cfg.Credentials,
		authorizeURL: authorizeURL,
		renewURL:     base + renewTokenPath,
		config: &oauth1.Config{
			ConsumerKey:    cfg.Credentials.ConsumerKey,
			ConsumerSecret: cfg.Credentials.ConsumerSecret,
			CallbackURL:    outOfBandCallback,
			Endpoint: oauth1.Endpoint{
				RequestTokenURL: base + requestTokenPath,
				AuthorizeURL:    authorizeURL,
				AccessTokenURL:  base + accessTokenPath,
			},
		},
	}
}

// FetchRequestToken performs step 1 of the handshake. The token pair is
// sourced only from the documented response fields.
func (f *OAuthFlow) FetchRequestToken(_ context.Context) (*domain.TokenPair, error) {
	if !f.creds.IsConfigured() {
		return nil, domain.ErrMissingCredentials
	}

	token, secret, err := f.config.RequestToken()
	if err != nil {
		return nil, fmt.Errorf("request token: %w", err)
	}
	return &domain.TokenPair{Token: token, TokenSecret: secret}, nil
}

// AuthorizationURL builds the approval URL. E*TRADE does not use the
// standard oauth_token query parameter; it wants the consumer key and the
// request token as key/token.
func (f *OAuthFlow) AuthorizationURL(requestToken string) string {
	u, err := url.Parse(f.authorizeURL)
	if err != nil {
		return f.authorizeURL
	}
	q := u.Query()
	q.Set("key", f.creds.ConsumerKey)
	q.Set("token", requestToken)
	u.RawQuery = q.Encode()
	return u.String()
}

// ExchangeVerifier performs step 3: request token + verifier for an access
// token pair.
func (f *OAuthFlow) ExchangeVerifier(_ context.Context, requestToken *domain.TokenPair, verifier string) (*domain.TokenPair, error) {
	token, secret, err := f.config.AccessToken(requestToken.Token, requestToken.TokenSecret, verifier)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	return &domain.TokenPair{Token: token, TokenSecret: secret}, nil
}

// Renew confirms continued validity of the access token behind sender. Any
// non-2xx response is a renewal failure, surfaced verbatim.
func (f *OAuthFlow) Renew(ctx context.Context, sender driven.Sender) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.renewURL, nil)
	if err != nil {
		return fmt.Errorf("build renew request: %w", err)
	}

	resp, err := sender.Do(req)
	if err != nil {
		return fmt.Errorf("renew access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &domain.VendorError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// NewSender returns an HTTP client that signs every request with the
// consumer credentials and the given access token pair.
func (f *OAuthFlow) NewSender(token, tokenSecret string) driven.Sender {
	return f.config.Client(context.Background(), oauth1.NewToken(token, tokenSecret))
}
