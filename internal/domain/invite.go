package domain

import (
	"time"

	"github.com/google/uuid"
)

// Issue-time bounds for invite tokens. Values outside these ranges are
// rejected with ErrValidation rather than silently clamped.
const (
	InviteMaxUsesFloor    = 1
	InviteMaxUsesCeiling  = 100
	InviteExpiryDaysFloor = 1
	InviteExpiryDaysLimit = 30
)

// InviteToken is a bounded-use, time-limited credential that authorizes
// joining a specific trip.
//
// Invariants held at all times: 0 <= CurrentUses <= MaxUses (also enforced
// by a CHECK constraint in the store), and once IsActive is false or
// ExpiresAt has passed no redemption may succeed regardless of remaining
// uses. CurrentUses moves only through the admission path's conditional
// increment and its compensating decrement; IsActive is flipped only by
// explicit revocation.
type InviteToken struct {
	ID          uuid.UUID
	TripID      uuid.UUID
	Token       string
	CreatedBy   uuid.UUID
	Email       string // restricts redemption to this address when non-empty
	MaxUses     int
	CurrentUses int
	ExpiresAt   time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Usable classifies the token's state at the given instant.
// It returns nil when the token can still admit someone, or the first
// matching sentinel in this deliberate order: deactivation reads as
// ErrInviteNotFound, then ErrInviteExpired, then ErrInviteUsedUp. A caller
// learns about deactivation or expiry before "limit reached" because those
// are the more informative failure reasons.
func (t InviteToken) Usable(now time.Time) error {
	if !t.IsActive {
		return ErrInviteNotFound
	}
	if now.After(t.ExpiresAt) {
		return ErrInviteExpired
	}
	if t.CurrentUses >= t.MaxUses {
		return ErrInviteUsedUp
	}
	return nil
}

// UsesRemaining returns how many redemptions the token still allows,
// never negative.
func (t InviteToken) UsesRemaining() int {
	if remaining := t.MaxUses - t.CurrentUses; remaining > 0 {
		return remaining
	}
	return 0
}
