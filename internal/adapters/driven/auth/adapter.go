// Package auth protects the gateway's own HTTP surface. The gateway can
// place real orders, so exposing it unauthenticated on a shared host is a
// hazard; when a gateway secret is configured, callers exchange the
// passphrase for a short-lived JWT and present it on every trading route.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// defaultTokenTTL keeps issued tokens within one trading day.
const defaultTokenTTL = 12 * time.Hour

// Adapter verifies the gateway passphrase and issues/parses HS256 JWTs.
type Adapter struct {
	jwtSecret      []byte
	passphraseHash string
	tokenTTL       time.Duration
}

// NewAdapter creates an auth adapter. The passphrase may be supplied as a
// bcrypt hash or as plaintext; plaintext is hashed once at startup so the
// raw secret is never kept around.
func NewAdapter(jwtSecret, passphrase string) (*Adapter, error) {
	hash := passphrase
	if !strings.HasPrefix(passphrase, "$2") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash passphrase: %w", err)
		}
		hash = string(hashed)
	}

	return &Adapter{
		jwtSecret:      []byte(jwtSecret),
		passphraseHash: hash,
		tokenTTL:       defaultTokenTTL,
	}, nil
}

// VerifyPassphrase checks a login attempt against the stored hash.
func (a *Adapter) VerifyPassphrase(passphrase string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.passphraseHash), []byte(passphrase))
	return err == nil
}

// IssueToken creates a signed JWT for a verified caller.
func (a *Adapter) IssueToken() (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "tradegate",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken validates a JWT presented on a request.
func (a *Adapter) ParseToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}
