// Package domain defines the real-time session domain models: actor roles,
// live connections, and the message envelope wire format.
package domain

import (
	"github.com/allisson/marketplace/internal/errors"
)

// Role is the closed set of actor roles that can hold a real-time session.
// Roles are parsed exhaustively at the handshake boundary and never
// re-derived from strings downstream.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

// ErrUnknownRole indicates a credential carried a role outside the closed set.
var ErrUnknownRole = errors.Wrap(errors.ErrUnauthorized, "unknown actor role")

// ParseRole maps a credential role claim onto the closed enumeration.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleMerchant:
		return RoleMerchant, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}
