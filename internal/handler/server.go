// Package handler implements the HTTP surface of the Wayfare API.
// All handlers are methods on Server; the route table and the role-gating
// middleware live in router.go. Handlers are split into resource-specific
// files (trip.go, invite.go, member.go, health.go) but share the Server
// struct so they can reach its dependencies.
package handler

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wayfare-app/api/internal/domain"
	"github.com/wayfare-app/api/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
// Declaring the interface here, in the consumer package, follows the Go
// convention "accept interfaces, return concrete types" and lets handler
// tests inject a mock without touching the service or repo layers.
type TripServicer interface {
	Create(ctx context.Context, actorID uuid.UUID, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, actorID, tripID uuid.UUID) (domain.Trip, int, error)
	List(ctx context.Context, actorID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, actorID uuid.UUID, trip domain.Trip) (domain.Trip, error)
	Archive(ctx context.Context, actorID, tripID uuid.UUID) error
	Members(ctx context.Context, actorID, tripID uuid.UUID) ([]domain.Membership, error)
	Leave(ctx context.Context, actorID, tripID uuid.UUID) error
	RemoveMember(ctx context.Context, actorID, tripID, userID uuid.UUID) error
}

// InviteServicer defines the invite operations the handlers depend on.
type InviteServicer interface {
	Issue(ctx context.Context, tripID uuid.UUID, issuer domain.Identity, maxUses, expiresInDays int, email string) (domain.InviteToken, string, error)
	Preview(ctx context.Context, token string) (service.InvitePreview, error)
	Redeem(ctx context.Context, token string, identity domain.Identity) (service.JoinResult, error)
	ListByTrip(ctx context.Context, actorID, tripID uuid.UUID) ([]domain.InviteToken, error)
	Revoke(ctx context.Context, actorID, tripID, inviteID uuid.UUID) error
}

// Guardian resolves whether a user holds at least a given role on a trip.
// Satisfied by guard.Guard; the requireRole middleware gates trip-scoped
// routes through it before any feature handler runs.
type Guardian interface {
	Require(ctx context.Context, tripID, userID uuid.UUID, minimum domain.Role) error
}

// Server holds the handlers' dependencies. Wire it in main.go and mount
// the result of Router on the outer middleware chain.
type Server struct {
	trips   TripServicer
	invites InviteServicer
	guard   Guardian
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// log may be nil, in which case slog.Default() is used.
func NewServer(trips TripServicer, invites InviteServicer, g Guardian, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{trips: trips, invites: invites, guard: g, log: log}
}
