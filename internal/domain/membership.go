package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission level a membership grants on a trip.
// The hierarchy is admin > guest; RoleNone is the absence of any active
// membership and is what the access guard reports for outsiders.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
	RoleNone  Role = ""
)

// AtLeast reports whether r satisfies the required minimum level.
// admin implies guest-level access; RoleNone satisfies nothing.
func (r Role) AtLeast(minimum Role) bool {
	if r == RoleNone {
		return false
	}
	if r == RoleAdmin {
		return true
	}
	return r == minimum
}

// Valid reports whether r is a role that can be stored on a membership.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGuest:
		return true
	}
	return false
}

// Membership is the durable (trip, user) relationship carrying a role.
//
// At most one row exists per (trip, user) pair — enforced by a database
// uniqueness constraint, not application logic, because admission must be
// safe under concurrent attempts. Leaving a trip deactivates the row;
// rows are never physically deleted, and re-admission reactivates them.
type Membership struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	UserID    uuid.UUID
	Role      Role
	IsActive  bool
	InvitedBy *uuid.UUID // user who issued the invite this membership came from, if any
	JoinedAt  time.Time
	UpdatedAt time.Time
}
