// Package etrade is the driven adapter for the E*TRADE REST API: OAuth1
// request signing, the three OAuth endpoints, and the signed trading and
// market-data passthrough with XML response decoding.
package etrade

import "github.com/custodia-labs/tradegate/internal/core/domain"

const (
	sandboxBaseURL    = "https://apisb.etrade.com"
	productionBaseURL = "https://api.etrade.com"

	// defaultAuthorizeURL is the user-facing approval page. The same host
	// serves both environments.
	defaultAuthorizeURL = "https://us.etrade.com/e/t/etws/authorize"

	// outOfBandCallback tells the vendor to show the verifier to the user
	// instead of redirecting.
	outOfBandCallback = "oob"

	requestTokenPath = "/oauth/request_token"
	accessTokenPath  = "/oauth/access_token"
	renewTokenPath   = "/oauth/renew_access_token"

	apiPathPrefix = "/v1"
)

// BaseURLFor returns the vendor host for an environment.
func BaseURLFor(env domain.Environment) string {
	if env == domain.EnvironmentProduction {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// APIBaseURLFor returns the versioned REST base for an environment.
func APIBaseURLFor(env domain.Environment) string {
	return BaseURLFor(env) + apiPathPrefix
}
