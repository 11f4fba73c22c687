// Package auth issues and validates onboarding session tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims holds the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	TokenType string `json:"typ"`
}

const (
	issuer           = "mbuy-stores"
	tokenTypeSession = "onboarding"
)

// ErrInvalidToken is returned when a token cannot be parsed, has expired,
// or is not an onboarding session token.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Sessions issues and validates onboarding session tokens with one HS256 secret.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a Sessions signer.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue starts a new session and returns its id with the signed token.
func (s *Sessions) Issue() (uuid.UUID, string, error) {
	id := uuid.New()
	token, err := s.IssueFor(id)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, token, nil
}

// IssueFor signs a token for an existing session id.
func (s *Sessions) IssueFor(sessionID uuid.UUID) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
		SessionID: sessionID.String(),
		TokenType: tokenTypeSession,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Sessions.IssueFor: %w", err)
	}

	return signed, nil
}

// Validate parses a session token and returns the session id it carries.
func (s *Sessions) Validate(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("auth.Sessions.Validate: %w", ErrInvalidToken)
	}

	if claims.TokenType != tokenTypeSession {
		return uuid.Nil, fmt.Errorf("auth.Sessions.Validate: wrong token type %q: %w", claims.TokenType, ErrInvalidToken)
	}

	id, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth.Sessions.Validate: bad session id: %w", ErrInvalidToken)
	}

	return id, nil
}
