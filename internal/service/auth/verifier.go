// Package auth verifies bearer tokens presented to the API. Token
// issuance lives with the account system, an external service; this
// package only checks signatures and extracts the owner identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lexvault/lexvault/internal/config"
)

// Claims carries the verified identity extracted from a token.
type Claims struct {
	// UserID is the unique identifier of the token's owner.
	UserID uuid.UUID `json:"uid"`

	Subject   string    `json:"sub,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}

// TokenVerifier validates bearer tokens and extracts their claims.
type TokenVerifier interface {
	// ValidateToken checks the token's signature and time claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, or ErrInvalidToken
	// on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// jwtClaims is the wire structure of the tokens we accept.
type jwtClaims struct {
	UserID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}

// hmacTokenVerifier validates HMAC-SHA256 signed tokens.
type hmacTokenVerifier struct {
	signingKey []byte
	clockSkew  time.Duration
	timeFunc   func() time.Time
}

var _ TokenVerifier = (*hmacTokenVerifier)(nil)

// NewTokenVerifier creates a TokenVerifier from the auth configuration.
func NewTokenVerifier(cfg config.AuthConfig) (TokenVerifier, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacTokenVerifier{
		signingKey: []byte(cfg.JWTSecret),
		clockSkew:  2 * time.Minute,
		timeFunc:   time.Now,
	}, nil
}

func (v *hmacTokenVerifier) ValidateToken(
	ctx context.Context,
	tokenString string,
) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := v.timeFunc()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.signingKey, nil
		},
		parserOpts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	out := &Claims{
		UserID:  claims.UserID,
		Subject: claims.Subject,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
