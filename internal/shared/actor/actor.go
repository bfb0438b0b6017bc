// Package actor carries the authenticated identity attached to every request.
// Identity issuance happens upstream; the API trusts the id/role pair as given.
package actor

import (
	"errors"
	"strings"
)

// Role enumerates the account kinds known to the platform.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleWorker   Role = "service_provider"
	RoleAdmin    Role = "admin"
)

// SystemID marks transitions driven by the platform itself rather than a user.
const SystemID = "system"

var ErrUnknownRole = errors.New("unknown actor role")

// Actor identifies who is driving an operation.
type Actor struct {
	ID   string
	Role Role
}

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleWorker:
		return RoleWorker, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}

// System returns the platform actor used for coordinator-driven transitions.
func System() Actor {
	return Actor{ID: SystemID, Role: RoleAdmin}
}

// IsAdmin reports whether the actor may bypass per-entity ownership checks.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
