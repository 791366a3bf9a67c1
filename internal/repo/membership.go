package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wayfare-app/api/internal/domain"
)

const membershipColumns = `id, trip_id, user_id, role, is_active, invited_by, joined_at, updated_at`

// MembershipRepo defines the persistence operations for trip memberships.
type MembershipRepo interface {
	// Join inserts the (trip, user) membership row, or reactivates it if a
	// deactivated row already exists. Returns domain.ErrAlreadyMember when
	// the row exists and is active. Safe under concurrent calls: the unique
	// constraint on (trip_id, user_id) decides the winner.
	Join(ctx context.Context, m domain.Membership) (domain.Membership, error)

	// ActiveRole returns the role of the user's active membership on the
	// trip, or domain.RoleNone with a nil error when there is none.
	ActiveRole(ctx context.Context, tripID, userID uuid.UUID) (domain.Role, error)

	// CountActive returns the number of active memberships on the trip.
	CountActive(ctx context.Context, tripID uuid.UUID) (int, error)

	// ListActiveByTrip returns all active memberships on the trip, admins
	// first, then earliest joined first.
	ListActiveByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error)

	// Deactivate flips the user's active membership off. Returns
	// domain.ErrNotFound when no active membership exists.
	Deactivate(ctx context.Context, tripID, userID uuid.UUID) error
}

// pgMembershipRepo is the Postgres implementation of MembershipRepo.
type pgMembershipRepo struct {
	db db
}

// NewMembershipRepo constructs a MembershipRepo backed by the provided db
// connection.
func NewMembershipRepo(db db) MembershipRepo {
	return &pgMembershipRepo{db: db}
}

// Join inserts or reactivates the membership row.
//
// The conditional DO UPDATE only fires when the existing row is inactive, so
// RETURNING yields a row exactly when admission actually happened. No row
// back means the user already holds an active membership — including when a
// concurrent redemption of the same user won the insert a moment earlier.
func (r *pgMembershipRepo) Join(ctx context.Context, m domain.Membership) (domain.Membership, error) {
	const q = `
		INSERT INTO memberships (trip_id, user_id, role, invited_by)
		VALUES (@trip_id, @user_id, @role, @invited_by)
		ON CONFLICT (trip_id, user_id) DO UPDATE
		SET role       = EXCLUDED.role,
		    invited_by = EXCLUDED.invited_by,
		    is_active  = TRUE,
		    updated_at = now()
		WHERE memberships.is_active = FALSE
		RETURNING ` + membershipColumns

	args := pgx.NamedArgs{
		"trip_id":    m.TripID,
		"user_id":    m.UserID,
		"role":       m.Role,
		"invited_by": m.InvitedBy, // nil becomes NULL
	}

	result, err := scanMembership(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Join: %w", domain.ErrAlreadyMember)
		}
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Join: %w", err)
	}
	return result, nil
}

// ActiveRole returns the user's role on the trip, RoleNone when absent.
// Absence is not an error here: the access guard treats "no membership" as a
// normal answer, not a failure.
func (r *pgMembershipRepo) ActiveRole(ctx context.Context, tripID, userID uuid.UUID) (domain.Role, error) {
	const q = `
		SELECT role
		FROM memberships
		WHERE trip_id = @trip_id AND user_id = @user_id AND is_active`

	var role string
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RoleNone, nil
		}
		return domain.RoleNone, fmt.Errorf("repo.MembershipRepo.ActiveRole: %w", err)
	}
	return domain.Role(role), nil
}

// CountActive returns the trip's active member count.
func (r *pgMembershipRepo) CountActive(ctx context.Context, tripID uuid.UUID) (int, error) {
	const q = `
		SELECT count(*)
		FROM memberships
		WHERE trip_id = @trip_id AND is_active`

	var n int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.MembershipRepo.CountActive: %w", err)
	}
	return n, nil
}

// ListActiveByTrip returns the trip's active members, admins first, then by
// join time. 'admin' sorts before 'guest', so plain role ordering works.
func (r *pgMembershipRepo) ListActiveByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error) {
	const q = `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE trip_id = @trip_id AND is_active
		ORDER BY role, joined_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.MembershipRepo.ListActiveByTrip: %w", err)
	}
	defer rows.Close()

	members := []domain.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.MembershipRepo.ListActiveByTrip: scan: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.MembershipRepo.ListActiveByTrip: rows: %w", err)
	}
	return members, nil
}

// Deactivate flips the user's membership off without deleting the row, so
// history survives and a later re-admission can reactivate it.
func (r *pgMembershipRepo) Deactivate(ctx context.Context, tripID, userID uuid.UUID) error {
	const q = `
		UPDATE memberships
		SET is_active = FALSE, updated_at = now()
		WHERE trip_id = @trip_id AND user_id = @user_id AND is_active`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.MembershipRepo.Deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.MembershipRepo.Deactivate: %w", domain.ErrNotFound)
	}
	return nil
}

// scanMembership maps a single database row into a domain.Membership.
func scanMembership(s scanner) (domain.Membership, error) {
	var (
		m         domain.Membership
		id        pgtype.UUID
		tripID    pgtype.UUID
		userID    pgtype.UUID
		role      string
		invitedBy pgtype.UUID
	)

	err := s.Scan(&id, &tripID, &userID, &role, &m.IsActive, &invitedBy, &m.JoinedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Membership{}, domain.ErrNotFound
		}
		return domain.Membership{}, err
	}

	m.ID = uuid.UUID(id.Bytes)
	m.TripID = uuid.UUID(tripID.Bytes)
	m.UserID = uuid.UUID(userID.Bytes)
	m.Role = domain.Role(role)
	if invitedBy.Valid {
		ib := uuid.UUID(invitedBy.Bytes)
		m.InvitedBy = &ib
	}

	return m, nil
}
