package domain

import "time"

// DateLayout is the calendar-date format used for token expiry checks.
// E*TRADE access tokens expire at midnight US Eastern regardless of the
// time of day they were issued, so only the date component matters.
const DateLayout = "2006-01-02"

// Environment identifies which E*TRADE environment a credential belongs to.
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// EnvironmentFor maps the sandbox flag to an Environment.
func EnvironmentFor(sandbox bool) Environment {
	if sandbox {
		return EnvironmentSandbox
	}
	return EnvironmentProduction
}

// Credentials is the consumer key pair issued by E*TRADE for an application.
// Loaded once at startup and immutable for the process lifetime.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Environment    Environment
}

// IsConfigured checks that both halves of the consumer pair are present.
func (c *Credentials) IsConfigured() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// TokenPair is an OAuth1 token and its secret. Used for both the short-lived
// request token and the durable access token.
type TokenPair struct {
	Token       string `json:"oauth_token"`
	TokenSecret string `json:"oauth_token_secret"`
}

// AccessToken is the durable signed-request credential plus the bookkeeping
// needed to decide whether it is still usable.
type AccessToken struct {
	TokenPair

	// TokenDate is the Eastern calendar date the token was issued.
	TokenDate string

	// LastUsed is the time of the most recent successful use.
	LastUsed time.Time

	// Environment the token was issued against. A sandbox token is never
	// valid for production and vice versa.
	Environment Environment
}

// TokenSnapshot is the persisted form of an AccessToken. It survives process
// restarts and is accepted on load only for the same environment and the
// same Eastern calendar date.
type TokenSnapshot struct {
	AccessToken       string      `json:"access_token"`
	AccessTokenSecret string      `json:"access_token_secret"`
	LastUsed          time.Time   `json:"last_used"`
	TokenDate         string      `json:"token_date"`
	Environment       Environment `json:"environment"`
}

// AuthorizationGrant is the result of starting the OAuth handshake: the
// request token pair and the URL the user must visit to approve access.
type AuthorizationGrant struct {
	Token            string `json:"oauth_token"`
	TokenSecret      string `json:"oauth_token_secret"`
	AuthorizationURL string `json:"authorization_url"`
}

// SessionStatus is a read-only view of the session for status reporting.
type SessionStatus struct {
	Authenticated bool        `json:"authenticated"`
	Environment   Environment `json:"environment"`
	TokenDate     string      `json:"token_date,omitempty"`
	LastUsed      time.Time   `json:"last_used,omitzero"`
}
