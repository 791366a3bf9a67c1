package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist (or is archived, for trips).
// Handlers map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing title, max_uses out of range).
// Handlers map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNotAuthorized is returned when the acting user lacks the role a trip
// operation requires. Handlers map this to HTTP 403.
var ErrNotAuthorized = errors.New("not authorized")

// Invite state errors, in the order the validator reports them.
// A deactivated token is indistinguishable from an absent one on purpose.
var (
	// ErrInviteNotFound covers both "no such token" and "token revoked".
	ErrInviteNotFound = errors.New("invite not found")

	// ErrInviteExpired means expires_at has passed, regardless of remaining uses.
	ErrInviteExpired = errors.New("invite expired")

	// ErrInviteUsedUp means current_uses has reached max_uses. Losing the
	// race for the last remaining use surfaces as this same error.
	ErrInviteUsedUp = errors.New("invite used up")
)

// Admission rejections that are conditions rather than failures.
var (
	// ErrAlreadyMember reports that the redeeming user already holds an
	// active membership on the trip. Success-adjacent: callers usually
	// treat it as a soft success, but no use is counted and no row added.
	ErrAlreadyMember = errors.New("already a member")

	// ErrTripFull reports that the trip's active-member count has reached
	// its max_members cap.
	ErrTripFull = errors.New("trip is full")

	// ErrEmailMismatch reports that the invite is restricted to a
	// different email address than the redeeming user's.
	ErrEmailMismatch = errors.New("invite email mismatch")
)

// ErrTokenCollision is returned when inserting an invite whose random token
// already exists. Vanishingly rare; the issuer retries internally with a
// fresh token and callers never observe it.
var ErrTokenCollision = errors.New("token collision")
