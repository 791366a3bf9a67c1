// Package domain contains the core data types for the Wayfare API.
// This package has zero external dependencies beyond uuid/time and is
// imported by every other internal package (repo, guard, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle phase of a trip.
type TripStatus string

const (
	TripStatusPlanning  TripStatus = "planning"
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// Valid reports whether s is one of the four known statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusPlanning, TripStatusActive, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// Trip is the top-level aggregate a group of users collaborates on.
// Memberships and invite tokens belong to a trip.
//
// Trips are soft-deleted: IsArchived flips to true and the row stays.
// MaxMembers is nil when the trip has no capacity limit.
type Trip struct {
	ID          uuid.UUID
	Title       string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Status      TripStatus
	MaxMembers  *int
	IsArchived  bool
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
