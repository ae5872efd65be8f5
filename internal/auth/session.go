package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Storage keys for the persisted session.
const (
	KeyToken    = "token"
	KeyUsername = "username"
)

// Session is the authenticated identity of the current user.
type Session struct {
	Token    string
	Username string
}

// IsAuthenticated reports whether both token and username are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.Username != ""
}

// ExpiresAt returns the exp claim of a JWT token without verifying the
// signature. It returns the zero time when the token carries no expiry or is
// not a JWT at all. Authentication state never depends on it.
func (s Session) ExpiresAt() time.Time {
	if s.Token == "" {
		return time.Time{}
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
