package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized indicates no usable access token is held; the caller
	// must run (or re-run) the OAuth handshake
	ErrNotAuthorized = errors.New("not authenticated")

	// ErrNoRequestToken indicates a handshake step was called before
	// BeginAuthorization produced a request token
	ErrNoRequestToken = errors.New("no request token: must authorize first")

	// ErrNoVerifier indicates CompleteAuthorization was called before a
	// verifier code was supplied
	ErrNoVerifier = errors.New("verifier not set: user must authorize first")

	// ErrMissingCredentials indicates the consumer key pair is absent or
	// incomplete in the configuration
	ErrMissingCredentials = errors.New("consumer credentials not configured")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates gateway authentication failed or is missing
	ErrUnauthorized = errors.New("unauthorized")
)

// VendorError carries a non-success response from an E*TRADE endpoint
// verbatim. OAuth1 signatures are nonce-bound, so these are never retried
// automatically; the caller decides what to do.
type VendorError struct {
	Status int
	Body   string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("vendor returned %d: %s", e.Status, e.Body)
}

// AsVendorError unwraps err to a *VendorError if one is in the chain.
func AsVendorError(err error) (*VendorError, bool) {
	var ve *VendorError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
