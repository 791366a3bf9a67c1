// Package guard centralizes membership-based access decisions.
// Services ask the guard instead of reading membership rows themselves, so
// the role rules for trip-scoped operations live in exactly one place.
package guard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wayfare-app/api/internal/domain"
	"github.com/wayfare-app/api/internal/repo"
)

// Guard answers access questions from active membership rows.
// Only active memberships grant anything: a user who left a trip is
// indistinguishable from one who never joined.
type Guard struct {
	memberships repo.MembershipRepo
}

// New constructs a Guard reading roles through the provided MembershipRepo.
func New(memberships repo.MembershipRepo) *Guard {
	return &Guard{memberships: memberships}
}

// RoleOf returns the user's active role on the trip.
// Outsiders get domain.RoleNone with a nil error; only infrastructure
// failures produce an error.
func (g *Guard) RoleOf(ctx context.Context, tripID, userID uuid.UUID) (domain.Role, error) {
	role, err := g.memberships.ActiveRole(ctx, tripID, userID)
	if err != nil {
		return domain.RoleNone, fmt.Errorf("guard.RoleOf: %w", err)
	}
	return role, nil
}

// CanAccess reports whether the user holds any active membership on the trip.
func (g *Guard) CanAccess(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	role, err := g.RoleOf(ctx, tripID, userID)
	if err != nil {
		return false, err
	}
	return role.AtLeast(domain.RoleGuest), nil
}

// IsAdmin reports whether the user holds an active admin membership.
func (g *Guard) IsAdmin(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	role, err := g.RoleOf(ctx, tripID, userID)
	if err != nil {
		return false, err
	}
	return role.AtLeast(domain.RoleAdmin), nil
}

// Require returns domain.ErrNotAuthorized unless the user's active role
// meets the given minimum. Services call this at the top of every
// trip-scoped operation.
func (g *Guard) Require(ctx context.Context, tripID, userID uuid.UUID, minimum domain.Role) error {
	role, err := g.RoleOf(ctx, tripID, userID)
	if err != nil {
		return err
	}
	if !role.AtLeast(minimum) {
		return fmt.Errorf("guard.Require: %w", domain.ErrNotAuthorized)
	}
	return nil
}
