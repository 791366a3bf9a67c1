// Package service contains the business logic for the Wayfare API.
// Services validate inputs, enforce access rules through the guard, and
// orchestrate repo calls. No SQL lives here — services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wayfare-app/api/internal/domain"
	"github.com/wayfare-app/api/internal/guard"
	"github.com/wayfare-app/api/internal/repo"
)

// TripService implements business logic for trip and membership operations.
type TripService struct {
	trips       repo.TripRepo
	memberships repo.MembershipRepo
	guard       *guard.Guard
}

// NewTripService constructs a TripService backed by the provided repos and
// guard.
func NewTripService(trips repo.TripRepo, memberships repo.MembershipRepo, g *guard.Guard) *TripService {
	return &TripService{trips: trips, memberships: memberships, guard: g}
}

// Create validates and persists a new trip. The actor becomes the trip's
// creator and first admin (the repo writes both rows in one transaction).
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, actorID uuid.UUID, trip domain.Trip) (domain.Trip, error) {
	if trip.Status == "" {
		trip.Status = domain.TripStatusPlanning
	}
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	trip.CreatedBy = actorID
	result, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a trip snapshot plus its active member count.
// Returns domain.ErrNotFound for missing or archived trips, and
// domain.ErrNotAuthorized when the actor is not an active member.
func (s *TripService) GetByID(ctx context.Context, actorID, tripID uuid.UUID) (domain.Trip, int, error) {
	trip, err := activeTrip(ctx, s.trips, tripID)
	if err != nil {
		return domain.Trip{}, 0, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	if err := s.guard.Require(ctx, tripID, actorID, domain.RoleGuest); err != nil {
		return domain.Trip{}, 0, fmt.Errorf("service.TripService.GetByID: %w", err)
	}

	count, err := s.memberships.CountActive(ctx, tripID)
	if err != nil {
		return domain.Trip{}, 0, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, count, nil
}

// List returns one page of the actor's trips plus the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) List(ctx context.Context, actorID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.trips.ListForUser(ctx, actorID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// Update validates and persists changes to a trip's mutable fields.
// Admin-only. Returns domain.ErrNotFound for missing or archived trips.
func (s *TripService) Update(ctx context.Context, actorID uuid.UUID, trip domain.Trip) (domain.Trip, error) {
	if _, err := activeTrip(ctx, s.trips, trip.ID); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if err := s.guard.Require(ctx, trip.ID, actorID, domain.RoleAdmin); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	result, err := s.trips.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return result, nil
}

// Archive soft-deletes a trip. Admin-only. Invites keep their rows but stop
// working: redemption re-reads the trip and refuses archived ones.
func (s *TripService) Archive(ctx context.Context, actorID, tripID uuid.UUID) error {
	if _, err := activeTrip(ctx, s.trips, tripID); err != nil {
		return fmt.Errorf("service.TripService.Archive: %w", err)
	}
	if err := s.guard.Require(ctx, tripID, actorID, domain.RoleAdmin); err != nil {
		return fmt.Errorf("service.TripService.Archive: %w", err)
	}

	if err := s.trips.Archive(ctx, tripID); err != nil {
		return fmt.Errorf("service.TripService.Archive: %w", err)
	}
	return nil
}

// Members returns the trip's active member roster, admins first.
// Member-gated. Always returns a non-nil slice.
func (s *TripService) Members(ctx context.Context, actorID, tripID uuid.UUID) ([]domain.Membership, error) {
	if _, err := activeTrip(ctx, s.trips, tripID); err != nil {
		return nil, fmt.Errorf("service.TripService.Members: %w", err)
	}
	if err := s.guard.Require(ctx, tripID, actorID, domain.RoleGuest); err != nil {
		return nil, fmt.Errorf("service.TripService.Members: %w", err)
	}

	members, err := s.memberships.ListActiveByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Members: %w", err)
	}
	if members == nil {
		members = []domain.Membership{}
	}
	return members, nil
}

// Leave deactivates the actor's own membership. The row survives, so a later
// invite redemption can reactivate it. Returns domain.ErrNotFound when the
// actor holds no active membership.
func (s *TripService) Leave(ctx context.Context, actorID, tripID uuid.UUID) error {
	if _, err := activeTrip(ctx, s.trips, tripID); err != nil {
		return fmt.Errorf("service.TripService.Leave: %w", err)
	}

	if err := s.memberships.Deactivate(ctx, tripID, actorID); err != nil {
		return fmt.Errorf("service.TripService.Leave: %w", err)
	}
	return nil
}

// RemoveMember deactivates another user's membership. Admin-only. Admins
// cannot remove themselves — that is what Leave is for.
func (s *TripService) RemoveMember(ctx context.Context, actorID, tripID, userID uuid.UUID) error {
	if _, err := activeTrip(ctx, s.trips, tripID); err != nil {
		return fmt.Errorf("service.TripService.RemoveMember: %w", err)
	}
	if err := s.guard.Require(ctx, tripID, actorID, domain.RoleAdmin); err != nil {
		return fmt.Errorf("service.TripService.RemoveMember: %w", err)
	}
	if actorID == userID {
		return fmt.Errorf("%w: use leave to remove yourself", domain.ErrValidation)
	}

	if err := s.memberships.Deactivate(ctx, tripID, userID); err != nil {
		return fmt.Errorf("service.TripService.RemoveMember: %w", err)
	}
	return nil
}

// activeTrip fetches a trip and filters out archived ones, so callers treat
// archived and missing trips identically.
func activeTrip(ctx context.Context, trips repo.TripRepo, id uuid.UUID) (domain.Trip, error) {
	trip, err := trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, err
	}
	if trip.IsArchived {
		return domain.Trip{}, domain.ErrNotFound
	}
	return trip, nil
}

// validateTrip enforces business rules common to both Create and Update.
//   - Title must be non-empty (whitespace-only titles are rejected).
//   - Both dates are required and end_date must not be before start_date.
//   - Status must be one of the known lifecycle values.
//   - MaxMembers, when set, must admit at least one member.
func validateTrip(trip domain.Trip) error {
	if strings.TrimSpace(trip.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if trip.StartDate.IsZero() || trip.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if trip.EndDate.Before(trip.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	if !trip.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, trip.Status)
	}
	if trip.MaxMembers != nil && *trip.MaxMembers < 1 {
		return fmt.Errorf("%w: max_members must be at least 1", domain.ErrValidation)
	}
	return nil
}
