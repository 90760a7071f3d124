// Package service provides real-time session services: handshake credential
// verification and connection liveness monitoring.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/realtime/domain"
)

// Claims carries the actor identity resolved from a handshake credential.
type Claims struct {
	ActorID uuid.UUID
	Role    domain.Role
}

// TokenVerifier validates a bearer credential presented during the
// real-time handshake and resolves the actor behind it. Invalid, expired,
// or malformed credentials are rejected with ErrUnauthorized before any
// connection is created.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}
