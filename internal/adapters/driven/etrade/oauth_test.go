package etrade

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/custodia-labs/tradegate/internal/adapters/driven/tokenfile"
	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/services"
)

func testCredentials() domain.Credentials {
	return domain.Credentials{
		ConsumerKey:    "consumer-key",
		ConsumerSecret: "consumer-secret",
		Environment:    domain.EnvironmentSandbox,
	}
}

// newStubVendor serves the three OAuth endpoints the way the vendor does:
// form-encoded token responses, verifier checked on the access exchange.
func newStubVendor(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		io.WriteString(w, "oauth_token=rt-1&oauth_token_secret=rs-1&oauth_callback_confirmed=true")
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "missing authorization", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		io.WriteString(w, "oauth_token=at-1&oauth_token_secret=as-1")
	})
	mux.HandleFunc("/oauth/renew_access_token", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Access Token has been renewed")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestOAuthFlow_FetchRequestToken_MissingCredentials(t *testing.T) {
	flow := NewOAuthFlow(OAuthConfig{Credentials: domain.Credentials{Environment: domain.EnvironmentSandbox}})

	_, err := flow.FetchRequestToken(context.Background())
	if !errors.Is(err, domain.ErrMissingCredentials) {
		t.Errorf("got error %v, want ErrMissingCredentials", err)
	}
}

func TestOAuthFlow_FetchRequestToken(t *testing.T) {
	vendor := newStubVendor(t)
	flow := NewOAuthFlow(OAuthConfig{Credentials: testCredentials(), BaseURL: vendor.URL})

	pair, err := flow.FetchRequestToken(context.Background())
	if err != nil {
		t.Fatalf("FetchRequestToken: %v", err)
	}
	if pair.Token != "rt-1" || pair.TokenSecret != "rs-1" {
		t.Errorf("unexpected request token pair: %+v", pair)
	}
}

func TestOAuthFlow_AuthorizationURL(t *testing.T) {
	flow := NewOAuthFlow(OAuthConfig{Credentials: testCredentials()})

	raw := flow.AuthorizationURL("rt-1")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse authorization URL: %v", err)
	}
	if u.Host != "us.etrade.com" {
		t.Errorf("host = %q, want us.etrade.com", u.Host)
	}
	q := u.Query()
	if q.Get("key") != "consumer-key" {
		t.Errorf("key = %q, want consumer-key", q.Get("key"))
	}
	if q.Get("token") != "rt-1" {
		t.Errorf("token = %q, want rt-1", q.Get("token"))
	}
}

func TestOAuthFlow_ExchangeVerifier(t *testing.T) {
	vendor := newStubVendor(t)
	flow := NewOAuthFlow(OAuthConfig{Credentials: testCredentials(), BaseURL: vendor.URL})

	pair, err := flow.ExchangeVerifier(context.Background(),
		&domain.TokenPair{Token: "rt-1", TokenSecret: "rs-1"}, "12345")
	if err != nil {
		t.Fatalf("ExchangeVerifier: %v", err)
	}
	if pair.Token != "at-1" || pair.TokenSecret != "as-1" {
		t.Errorf("unexpected access pair: %+v", pair)
	}
}

func TestOAuthFlow_Renew(t *testing.T) {
	vendor := newStubVendor(t)
	flow := NewOAuthFlow(OAuthConfig{Credentials: testCredentials(), BaseURL: vendor.URL})

	sender := flow.NewSender("at-1", "as-1")
	if err := flow.Renew(context.Background(), sender); err != nil {
		t.Errorf("Renew: %v", err)
	}
}

func TestOAuthFlow_RenewRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "oauth_problem=token_expired")
	}))
	t.Cleanup(server.Close)

	flow := NewOAuthFlow(OAuthConfig{Credentials: testCredentials(), BaseURL: server.URL})
	sender := flow.NewSender("at-1", "as-1")

	err := flow.Renew(context.Background(), sender)
	vendorErr, ok := domain.AsVendorError(err)
	if !ok {
		t.Fatalf("got error %v, want VendorError", err)
	}
	if vendorErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", vendorErr.Status)
	}
}

func TestOAuthFlow_SignedSender(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, "ok")
	}))
	t.Cleanup(server.Close)

	flow := NewOAuthFlow(OAuthConfig{Credentials: testCredentials()})
	sender := flow.NewSender("at-1", "as-1")

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := sender.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if gotAuth == "" {
		t.Fatal("request should carry an OAuth Authorization header")
	}
	for _, want := range []string{"oauth_consumer_key=", "oauth_token=", "oauth_signature=", "HMAC-SHA1"} {
		if !strings.Contains(gotAuth, want) {
			t.Errorf("authorization header missing %q: %s", want, gotAuth)
		}
	}
}

// TestHandshakeEndToEnd walks the full handshake through the real session
// service, flow adapter, and file store against a stub vendor, then restarts
// the service and verifies the persisted token resumes.
func TestHandshakeEndToEnd(t *testing.T) {
	vendor := newStubVendor(t)
	flow := NewOAuthFlow(OAuthConfig{Credentials: testCredentials(), BaseURL: vendor.URL})
	store := tokenfile.NewStore(filepath.Join(t.TempDir(), "tokens.json"))

	svc := services.NewSessionService(services.SessionConfig{
		Environment: domain.EnvironmentSandbox,
		Flow:        flow,
		Store:       store,
	})

	grant, err := svc.BeginAuthorization(context.Background())
	if err != nil {
		t.Fatalf("BeginAuthorization: %v", err)
	}
	if grant.Token != "rt-1" {
		t.Errorf("request token = %q, want rt-1", grant.Token)
	}
	if !strings.Contains(grant.AuthorizationURL, "token=rt-1") {
		t.Errorf("authorization URL missing token: %s", grant.AuthorizationURL)
	}

	if err := svc.SupplyVerifier("12345"); err != nil {
		t.Fatalf("SupplyVerifier: %v", err)
	}
	pair, err := svc.CompleteAuthorization(context.Background())
	if err != nil {
		t.Fatalf("CompleteAuthorization: %v", err)
	}
	if pair.Token != "at-1" || pair.TokenSecret != "as-1" {
		t.Errorf("unexpected access pair: %+v", pair)
	}
	if !svc.EnsureReady(context.Background()) {
		t.Error("session should be ready after the handshake")
	}

	// A fresh service over the same store resumes without a new handshake.
	resumed := services.NewSessionService(services.SessionConfig{
		Environment: domain.EnvironmentSandbox,
		Flow:        flow,
		Store:       store,
	})
	if !resumed.IsAuthenticated() {
		t.Error("restarted service should resume the persisted token")
	}
	if !resumed.EnsureReady(context.Background()) {
		t.Error("resumed session should be ready")
	}
}
