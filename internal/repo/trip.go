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

// tripColumns is the SELECT list every trip query returns, in scanTrip order.
const tripColumns = `id, title, destination, start_date, end_date, status, max_members, is_archived, created_by, created_at, updated_at`

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and the creator's admin membership in one
	// transaction, and returns the persisted trip (with DB-generated id,
	// created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key, archived or
	// not. Returns domain.ErrNotFound if no trip with that ID exists;
	// callers decide how archived trips surface.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// Update overwrites the mutable fields of an existing trip and returns
	// the updated record. Returns domain.ErrNotFound if the trip does not
	// exist or is archived.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Archive soft-deletes a trip. Returns domain.ErrNotFound if the trip
	// does not exist or is already archived.
	Archive(ctx context.Context, id uuid.UUID) error

	// ListForUser returns one page of non-archived trips where the user
	// holds an active membership, most recent start date first, plus the
	// total count across all pages.
	ListForUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db txdb
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback
// isolation (Create then runs inside a savepoint).
func NewTripRepo(db txdb) TripRepo {
	return &pgTripRepo{db: db}
}

// Create inserts the trip row and the creator's admin membership atomically.
// A trip must never exist without its creator as active admin, so both
// inserts share one transaction.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO trips (title, destination, start_date, end_date, status, max_members, created_by)
		VALUES (@title, @destination, @start_date, @end_date, @status, @max_members, @created_by)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"title":       trip.Title,
		"destination": trip.Destination,
		"start_date":  trip.StartDate,
		"end_date":    trip.EndDate,
		"status":      trip.Status,
		"max_members": trip.MaxMembers, // nil becomes NULL
		"created_by":  trip.CreatedBy,
	}

	result, err := scanTrip(tx.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	const mq = `
		INSERT INTO memberships (trip_id, user_id, role)
		VALUES (@trip_id, @user_id, @role)`

	_, err = tx.Exec(ctx, mq, pgx.NamedArgs{
		"trip_id": result.ID,
		"user_id": trip.CreatedBy,
		"role":    domain.RoleAdmin,
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: creator membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: commit: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key, including archived rows.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// Update overwrites the mutable fields of a trip and returns the updated
// record. Archived trips are excluded, so updating one reads as not found.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET title       = @title,
		    destination = @destination,
		    start_date  = @start_date,
		    end_date    = @end_date,
		    status      = @status,
		    max_members = @max_members,
		    updated_at  = now()
		WHERE id = @id AND NOT is_archived
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":          trip.ID,
		"title":       trip.Title,
		"destination": trip.Destination,
		"start_date":  trip.StartDate,
		"end_date":    trip.EndDate,
		"status":      trip.Status,
		"max_members": trip.MaxMembers,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// Archive soft-deletes a trip by flipping is_archived.
func (r *pgTripRepo) Archive(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE trips
		SET is_archived = TRUE, updated_at = now()
		WHERE id = @id AND NOT is_archived`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Archive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Archive: %w", domain.ErrNotFound)
	}
	return nil
}

// ListForUser returns one page of the user's trips plus the total count.
// Only trips with an active membership count, and archived trips are hidden.
func (r *pgTripRepo) ListForUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const countQ = `
		SELECT count(*)
		FROM trips t
		JOIN memberships m ON m.trip_id = t.id
		WHERE m.user_id = @user_id AND m.is_active AND NOT t.is_archived`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"user_id": userID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListForUser: count: %w", err)
	}

	const q = `
		SELECT t.id, t.title, t.destination, t.start_date, t.end_date, t.status,
		       t.max_members, t.is_archived, t.created_by, t.created_at, t.updated_at
		FROM trips t
		JOIN memberships m ON m.trip_id = t.id
		WHERE m.user_id = @user_id AND m.is_active AND NOT t.is_archived
		ORDER BY t.start_date DESC, t.created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"user_id": userID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListForUser: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListForUser: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListForUser: rows: %w", err)
	}

	return trips, total, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, date, and nullable max_members conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t          domain.Trip
		id         pgtype.UUID
		start, end pgtype.Date
		status     string
		maxMembers pgtype.Int4
		createdBy  pgtype.UUID
	)

	err := s.Scan(&id, &t.Title, &t.Destination, &start, &end, &status,
		&maxMembers, &t.IsArchived, &createdBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = start.Time
	t.EndDate = end.Time
	t.Status = domain.TripStatus(status)
	if maxMembers.Valid {
		mm := int(maxMembers.Int32)
		t.MaxMembers = &mm
	}
	t.CreatedBy = uuid.UUID(createdBy.Bytes)

	return t, nil
}
