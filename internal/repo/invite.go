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

const inviteColumns = `id, trip_id, token, created_by, email, max_uses, current_uses, expires_at, is_active, created_at, updated_at`

// InviteRepo defines the persistence operations for invite tokens, including
// the conditional increment the admission path uses as its serialization
// point.
type InviteRepo interface {
	// Create inserts a new invite token and returns the persisted record.
	// Returns domain.ErrTokenCollision when the random token string is
	// already taken, so the caller can retry with a fresh one.
	Create(ctx context.Context, inv domain.InviteToken) (domain.InviteToken, error)

	// GetByToken retrieves an invite by its token string.
	// Returns domain.ErrInviteNotFound when no such token exists.
	GetByToken(ctx context.Context, token string) (domain.InviteToken, error)

	// ConsumeUse atomically claims one use of the token and returns the
	// record as of the claim. The increment only happens when the token is
	// active, unexpired, and below its use limit, all checked inside the
	// UPDATE itself; under concurrency, Postgres row locking makes claims
	// for the last remaining use strictly ordered. Returns
	// domain.ErrInviteUsedUp when no use could be claimed.
	ConsumeUse(ctx context.Context, token string) (domain.InviteToken, error)

	// ReleaseUse undoes one ConsumeUse claim. It is the compensation step
	// for admissions that fail after the use was claimed.
	ReleaseUse(ctx context.Context, token string) error

	// Revoke deactivates an invite, scoped by trip. Returns
	// domain.ErrNotFound when the invite does not exist under that trip or
	// is already revoked.
	Revoke(ctx context.Context, tripID, inviteID uuid.UUID) error

	// ListByTrip returns all invites for the trip, newest first, revoked
	// and exhausted ones included.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.InviteToken, error)
}

// pgInviteRepo is the Postgres implementation of InviteRepo.
type pgInviteRepo struct {
	db db
}

// NewInviteRepo constructs an InviteRepo backed by the provided db connection.
func NewInviteRepo(db db) InviteRepo {
	return &pgInviteRepo{db: db}
}

// Create inserts a new invite token row.
func (r *pgInviteRepo) Create(ctx context.Context, inv domain.InviteToken) (domain.InviteToken, error) {
	const q = `
		INSERT INTO invite_tokens (trip_id, token, created_by, email, max_uses, expires_at)
		VALUES (@trip_id, @token, @created_by, @email, @max_uses, @expires_at)
		RETURNING ` + inviteColumns

	// An unrestricted invite stores NULL, not the empty string.
	var email *string
	if inv.Email != "" {
		email = &inv.Email
	}

	args := pgx.NamedArgs{
		"trip_id":    inv.TripID,
		"token":      inv.Token,
		"created_by": inv.CreatedBy,
		"email":      email,
		"max_uses":   inv.MaxUses,
		"expires_at": inv.ExpiresAt,
	}

	result, err := scanInvite(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err, "invite_tokens_token_key") {
			return domain.InviteToken{}, fmt.Errorf("repo.InviteRepo.Create: %w", domain.ErrTokenCollision)
		}
		return domain.InviteToken{}, fmt.Errorf("repo.InviteRepo.Create: %w", err)
	}
	return result, nil
}

// GetByToken retrieves an invite by its opaque token string.
func (r *pgInviteRepo) GetByToken(ctx context.Context, token string) (domain.InviteToken, error) {
	const q = `
		SELECT ` + inviteColumns + `
		FROM invite_tokens
		WHERE token = @token`

	result, err := scanInvite(r.db.QueryRow(ctx, q, pgx.NamedArgs{"token": token}))
	if err != nil {
		return domain.InviteToken{}, fmt.Errorf("repo.InviteRepo.GetByToken: %w", err)
	}
	return result, nil
}

// ConsumeUse claims one use with a single conditional UPDATE.
//
// Every admission precondition on the token is re-checked inside the WHERE
// clause, so a claim can never push current_uses past max_uses no matter how
// many redemptions race. Zero rows updated means some precondition no longer
// holds; since the caller validated the token moments ago, the overwhelmingly
// likely cause is losing the race for the last use, and it is reported as
// ErrInviteUsedUp.
func (r *pgInviteRepo) ConsumeUse(ctx context.Context, token string) (domain.InviteToken, error) {
	const q = `
		UPDATE invite_tokens
		SET current_uses = current_uses + 1,
		    updated_at   = now()
		WHERE token = @token
		  AND is_active
		  AND expires_at >= now()
		  AND current_uses < max_uses
		RETURNING ` + inviteColumns

	result, err := scanInvite(r.db.QueryRow(ctx, q, pgx.NamedArgs{"token": token}))
	if err != nil {
		if errors.Is(err, domain.ErrInviteNotFound) {
			return domain.InviteToken{}, fmt.Errorf("repo.InviteRepo.ConsumeUse: %w", domain.ErrInviteUsedUp)
		}
		return domain.InviteToken{}, fmt.Errorf("repo.InviteRepo.ConsumeUse: %w", err)
	}
	return result, nil
}

// ReleaseUse decrements the use counter claimed by ConsumeUse.
// The current_uses > 0 condition keeps the counter from ever going negative
// should compensation run twice.
func (r *pgInviteRepo) ReleaseUse(ctx context.Context, token string) error {
	const q = `
		UPDATE invite_tokens
		SET current_uses = current_uses - 1,
		    updated_at   = now()
		WHERE token = @token AND current_uses > 0`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"token": token})
	if err != nil {
		return fmt.Errorf("repo.InviteRepo.ReleaseUse: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.InviteRepo.ReleaseUse: %w", domain.ErrNotFound)
	}
	return nil
}

// Revoke deactivates an invite. Redemptions in flight that already passed
// validation will still be stopped by ConsumeUse's is_active check.
func (r *pgInviteRepo) Revoke(ctx context.Context, tripID, inviteID uuid.UUID) error {
	const q = `
		UPDATE invite_tokens
		SET is_active = FALSE, updated_at = now()
		WHERE id = @id AND trip_id = @trip_id AND is_active`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": inviteID, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.InviteRepo.Revoke: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.InviteRepo.Revoke: %w", domain.ErrNotFound)
	}
	return nil
}

// ListByTrip returns every invite issued for the trip, newest first.
func (r *pgInviteRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.InviteToken, error) {
	const q = `
		SELECT ` + inviteColumns + `
		FROM invite_tokens
		WHERE trip_id = @trip_id
		ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.InviteRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	invites := []domain.InviteToken{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.InviteRepo.ListByTrip: scan: %w", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.InviteRepo.ListByTrip: rows: %w", err)
	}
	return invites, nil
}

// scanInvite maps a single database row into a domain.InviteToken.
// A missing row surfaces as ErrInviteNotFound rather than the generic
// ErrNotFound: lookups by token are the public entry point, and callers
// should not learn whether a token ever existed.
func scanInvite(s scanner) (domain.InviteToken, error) {
	var (
		inv       domain.InviteToken
		id        pgtype.UUID
		tripID    pgtype.UUID
		createdBy pgtype.UUID
		email     pgtype.Text
	)

	err := s.Scan(&id, &tripID, &inv.Token, &createdBy, &email, &inv.MaxUses,
		&inv.CurrentUses, &inv.ExpiresAt, &inv.IsActive, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.InviteToken{}, domain.ErrInviteNotFound
		}
		return domain.InviteToken{}, err
	}

	inv.ID = uuid.UUID(id.Bytes)
	inv.TripID = uuid.UUID(tripID.Bytes)
	inv.CreatedBy = uuid.UUID(createdBy.Bytes)
	inv.Email = email.String // NULL reads as ""

	return inv, nil
}
