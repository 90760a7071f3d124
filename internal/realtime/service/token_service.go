package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/allisson/marketplace/internal/errors"
	"github.com/allisson/marketplace/internal/realtime/domain"
)

// tokenClaims is the JWT claim set expected from the identity service.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// jwtTokenVerifier verifies HS256 bearer tokens issued by the identity
// service. The subject claim carries the actor id, the role claim the
// actor's role.
type jwtTokenVerifier struct {
	secret []byte
}

// NewJWTTokenVerifier creates a TokenVerifier for HS256 tokens signed with
// the given secret.
func NewJWTTokenVerifier(secret []byte) TokenVerifier {
	return &jwtTokenVerifier{secret: secret}
}

// Verify parses and validates the token and resolves actor id and role.
// Every failure path maps to ErrUnauthorized; the caller never learns which
// part of the credential was bad.
func (v *jwtTokenVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "missing credential")
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, err.Error())
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid token claims")
	}

	actorID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid subject claim")
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}

	return &Claims{ActorID: actorID, Role: role}, nil
}
