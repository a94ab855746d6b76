// Package auth implements the identity layer: bearer credential issuance
// and verification (JWT), the GitHub OAuth handshake, server-side sessions,
// and the access gates that resolve a caller's identity per request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "taskboard"

// DefaultTokenTTL is the bearer credential lifetime: 7 days from issuance.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrTokenInvalid covers every way a presented token can fail verification:
// bad signature, wrong format, wrong issuer, expired. Callers must not
// distinguish these cases — the gate reports all of them as a uniform 401.
var ErrTokenInvalid = errors.New("auth: invalid token")

// TokenService mints and verifies the signed bearer credentials of the
// bearer identity model. The HMAC secret is process-lifetime state, loaded
// once at startup and never rotated at runtime.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService signing with the given secret.
// ttl <= 0 selects the default 7-day credential lifetime.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload; the "sub" claim carries the internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a credential for the given userID with the
// service's configured lifetime.
func (s *TokenService) Issue(userID string) (string, error) {
	return s.IssueWithDuration(userID, s.ttl)
}

// IssueWithDuration creates a credential with an explicit lifetime.
// Used by tests to mint already-expired tokens.
func (s *TokenService) IssueWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a credential, returning the userID it asserts.
//
// Checks: HMAC signature, HS256 algorithm (jwt.WithValidMethods blocks
// algorithm-confusion tokens), issuer, and a required expiry in the future.
// Every failure is reported as ErrTokenInvalid. Verification does not touch
// the user store — re-resolving the subject on each request is the bearer
// gate's job.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", ErrTokenInvalid
	}

	return c.Subject, nil
}
