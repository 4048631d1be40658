package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is the authority level of an authenticated caller.
type Role string

const (
	RoleRenter Role = "RENTER"
	RoleAgent  Role = "AGENT"
	RoleAdmin  Role = "ADMIN"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleRenter, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a claim value to a Role. Lower-case and "ROLE_" prefixed forms are accepted.
func ParseRole(s string) (Role, error) {
	role := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_"))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}

// Caller is the resolved identity of whoever invokes an engine operation.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

// NewCaller builds a Caller.
func NewCaller(id uuid.UUID, role Role) Caller {
	return Caller{ID: id, Role: role}
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// IsZero reports whether no identity was resolved.
func (c Caller) IsZero() bool { return c.ID == uuid.Nil }

// Profile is the read-model of a user, used for display names in projections.
type Profile struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Role      Role
}

// DisplayName returns "first last", trimmed.
func (p Profile) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// ProfileDirectory resolves user profiles kept in the local read model.
type ProfileDirectory interface {
	// FindByIDs returns the profiles that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Profile, error)

	// Upsert stores the latest known profile.
	Upsert(ctx context.Context, profile Profile) error
}
