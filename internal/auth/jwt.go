// Package auth issues and checks the signed tokens the dashboard hands out,
// hashes prototype-mode passwords, and runs the GitHub OAuth link flow.
//
// TOKEN KINDS:
// Two kinds of HS256 JWT are signed with the same secret and told apart by
// their audience claim:
//
//	device  long-lived, stored in the "device" cookie; the subject is the
//	        device id whose key/value namespace holds the browser's state
//	server  prototype-mode server token; the subject is the local user id
//
// A token of one kind never validates as the other.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "commit-dashboard"

// Kind is the audience a token is issued for.
type Kind string

const (
	KindDevice Kind = "device"
	KindServer Kind = "server"
)

// Lifetimes of the two token kinds.
const (
	DeviceTokenTTL = 365 * 24 * time.Hour
	ServerTokenTTL = 24 * time.Hour
)

// TokenService creates and validates tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: DEVICE_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Generate signs a token of kind for subject with the kind's default lifetime.
func (s *TokenService) Generate(kind Kind, subject string) (string, error) {
	ttl := ServerTokenTTL
	if kind == KindDevice {
		ttl = DeviceTokenTTL
	}
	return s.GenerateWithDuration(kind, subject, ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to get an already expired token.
func (s *TokenService) GenerateWithDuration(kind Kind, subject string, d time.Duration) (string, error) {
	now := time.Now()

	c := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{string(kind)},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer, audience and expiry and
// returns the subject.
//
// jwt.WithValidMethods rejects "alg: none" and any non-HMAC algorithm, which
// would otherwise let a forged token through.
func (s *TokenService) Validate(kind Kind, tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(string(kind)),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}
