// Package auth resolves the caller's session from a bearer token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
)

// ErrInvalidToken is returned when a bearer token cannot be verified.
var ErrInvalidToken = errors.New("invalid or expired token")

// SessionLookup resolves a bearer token into a session.
type SessionLookup interface {
	Lookup(token string) (*model.Session, error)
}

// Claims is the token payload. The subject is the user id.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	Activated bool   `json:"activated"`
	jwt.RegisteredClaims
}

// JWTSessions issues and verifies HS256 session tokens.
type JWTSessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTSessions creates a JWTSessions signing with secret; issued tokens live for ttl.
func NewJWTSessions(secret string, ttl time.Duration) *JWTSessions {
	return &JWTSessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueToken signs a token for the session.
func (j *JWTSessions) IssueToken(sess model.Session) (string, error) {
	now := j.now()
	claims := Claims{
		Email:     sess.Email,
		Role:      sess.Role,
		Activated: sess.Activated,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Lookup verifies the token and returns its session.
func (j *JWTSessions) Lookup(token string) (*model.Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &model.Session{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		Activated: claims.Activated,
	}, nil
}
