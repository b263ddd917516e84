// Package auth reads the backend-issued admin access tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoExpiry = errors.New("token has no exp claim")

// TokenExpiry returns the exp claim of a backend token. The signature is not
// checked: the backend owns the key and verifies every request itself.
func TokenExpiry(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, fmt.Errorf("token is required")
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// SessionTTL is how long a session for token should live: until the token
// expires, capped at fallback. Tokens without a readable exp get fallback.
func SessionTTL(token string, now time.Time, fallback time.Duration) time.Duration {
	exp, err := TokenExpiry(token)
	if err != nil {
		return fallback
	}
	ttl := exp.Sub(now)
	if ttl > fallback {
		return fallback
	}
	return ttl
}
