package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	retry "github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/wayfare-app/api/internal/domain"
	"github.com/wayfare-app/api/internal/guard"
	"github.com/wayfare-app/api/internal/repo"
	"github.com/wayfare-app/api/internal/token"
)

// InvitePreview is what an anonymous visitor sees on the invite landing
// page before deciding to join.
type InvitePreview struct {
	Invite        domain.InviteToken
	Trip          domain.Trip
	ActiveMembers int
}

// JoinResult reports a successful admission.
type JoinResult struct {
	TripID      uuid.UUID
	TripTitle   string
	RedirectURL string
	Membership  domain.Membership
}

// InviteService implements the invite lifecycle: issuing shareable tokens,
// previewing them publicly, redeeming them for membership, and the admin
// listing and revocation surface.
type InviteService struct {
	trips       repo.TripRepo
	memberships repo.MembershipRepo
	invites     repo.InviteRepo
	guard       *guard.Guard
	log         *slog.Logger
	baseURL     string
}

// NewInviteService constructs an InviteService. baseURL is the public
// frontend origin that share and redirect URLs are built on; log may be nil,
// in which case slog.Default() is used.
func NewInviteService(trips repo.TripRepo, memberships repo.MembershipRepo, invites repo.InviteRepo, g *guard.Guard, log *slog.Logger, baseURL string) *InviteService {
	if log == nil {
		log = slog.Default()
	}
	return &InviteService{
		trips:       trips,
		memberships: memberships,
		invites:     invites,
		guard:       g,
		log:         log,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// Issue creates a shareable invite for a trip. Admin-only.
//
// maxUses and expiresInDays are bounded by the domain limits; email, when
// given, restricts redemption to that address. The random token is retried
// internally on the rare collision with an existing row, so callers never
// see ErrTokenCollision.
func (s *InviteService) Issue(ctx context.Context, tripID uuid.UUID, issuer domain.Identity, maxUses, expiresInDays int, email string) (domain.InviteToken, string, error) {
	if _, err := activeTrip(ctx, s.trips, tripID); err != nil {
		return domain.InviteToken{}, "", fmt.Errorf("service.InviteService.Issue: %w", err)
	}
	if err := s.guard.Require(ctx, tripID, issuer.ID, domain.RoleAdmin); err != nil {
		return domain.InviteToken{}, "", fmt.Errorf("service.InviteService.Issue: %w", err)
	}
	if err := validateIssue(maxUses, expiresInDays, email); err != nil {
		return domain.InviteToken{}, "", err
	}

	invite := domain.InviteToken{
		TripID:    tripID,
		CreatedBy: issuer.ID,
		Email:     strings.TrimSpace(email),
		MaxUses:   maxUses,
		ExpiresAt: time.Now().AddDate(0, 0, expiresInDays),
	}

	// Collisions on 128 bits of randomness are vanishingly rare; a few
	// attempts with fresh tokens is plenty.
	backoff := retry.WithMaxRetries(4, retry.NewConstant(time.Millisecond))

	var created domain.InviteToken
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tok, err := token.New()
		if err != nil {
			return err
		}
		invite.Token = tok

		created, err = s.invites.Create(ctx, invite)
		if errors.Is(err, domain.ErrTokenCollision) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return domain.InviteToken{}, "", fmt.Errorf("service.InviteService.Issue: %w", err)
	}

	return created, s.ShareURL(created.Token), nil
}

// ShareURL returns the public link that lands on the invite preview page.
func (s *InviteService) ShareURL(tok string) string {
	return s.baseURL + "/invite/" + tok
}

// Preview classifies a token for the public landing page without consuming
// anything. Unknown, revoked, and archived-trip tokens all read as not
// found — a visitor never learns whether such a token ever existed.
func (s *InviteService) Preview(ctx context.Context, tok string) (InvitePreview, error) {
	if !token.WellFormed(tok) {
		return InvitePreview{}, fmt.Errorf("service.InviteService.Preview: %w", domain.ErrInviteNotFound)
	}

	invite, err := s.invites.GetByToken(ctx, tok)
	if err != nil {
		return InvitePreview{}, fmt.Errorf("service.InviteService.Preview: %w", err)
	}
	if err := invite.Usable(time.Now()); err != nil {
		return InvitePreview{}, fmt.Errorf("service.InviteService.Preview: %w", err)
	}

	trip, err := activeTrip(ctx, s.trips, invite.TripID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrInviteNotFound
		}
		return InvitePreview{}, fmt.Errorf("service.InviteService.Preview: %w", err)
	}

	count, err := s.memberships.CountActive(ctx, invite.TripID)
	if err != nil {
		return InvitePreview{}, fmt.Errorf("service.InviteService.Preview: %w", err)
	}

	return InvitePreview{Invite: invite, Trip: trip, ActiveMembers: count}, nil
}

// Redeem admits the authenticated identity to the trip behind the token.
//
// Checks run in a fixed order so the caller always learns the most useful
// failure: token validity, trip existence, already-a-member idempotency,
// capacity, then the email restriction. Only after all of them pass does
// admission start, as a two-step saga:
//
//  1. the conditional increment on current_uses claims a use — this is the
//     authoritative gate, and losing it (to a concurrent redemption,
//     revocation, or expiry) reports as ErrInviteUsedUp;
//  2. the membership row is inserted, or reactivated if the identity had
//     left the trip earlier; if this step fails, the claimed use is
//     released again so the counter never leaks.
//
// A client retry after a timed-out redemption lands on ErrAlreadyMember
// with no second membership row and no double-counted use.
func (s *InviteService) Redeem(ctx context.Context, tok string, identity domain.Identity) (JoinResult, error) {
	if !token.WellFormed(tok) {
		return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", domain.ErrInviteNotFound)
	}

	invite, err := s.invites.GetByToken(ctx, tok)
	if err != nil {
		return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", err)
	}
	if err := invite.Usable(time.Now()); err != nil {
		return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", err)
	}

	trip, err := activeTrip(ctx, s.trips, invite.TripID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", err)
	}

	role, err := s.memberships.ActiveRole(ctx, trip.ID, identity.ID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", err)
	}
	if role != domain.RoleNone {
		return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", domain.ErrAlreadyMember)
	}

	if trip.MaxMembers != nil {
		count, err := s.memberships.CountActive(ctx, trip.ID)
		if err != nil {
			return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", err)
		}
		if count >= *trip.MaxMembers {
			return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", domain.ErrTripFull)
		}
	}

	if invite.Email != "" && !strings.EqualFold(invite.Email, strings.TrimSpace(identity.Email)) {
		return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", domain.ErrEmailMismatch)
	}

	// Step 1: claim a use. From here on the claim must either be kept
	// because a membership came into existence, or released.
	if _, err := s.invites.ConsumeUse(ctx, tok); err != nil {
		return JoinResult{}, fmt.Errorf("service.InviteService.Redeem: %w", err)
	}

	// Step 2: write the membership.
	membership, err := s.memberships.Join(ctx, domain.Membership{
		TripID:    trip.ID,
		UserID:    identity.ID,
		Role:      domain.RoleGuest,
		InvitedBy: &invite.CreatedBy,
	})
	if err != nil {
		return JoinResult{}, s.releaseUse(ctx, tok, invite, fmt.Errorf("service.InviteService.Redeem: %w", err))
	}

	return JoinResult{
		TripID:      trip.ID,
		TripTitle:   trip.Title,
		RedirectURL: s.baseURL + "/trips/" + trip.ID.String(),
		Membership:  membership,
	}, nil
}

// ListByTrip returns every invite issued for the trip, newest first.
// Admin-only. Always returns a non-nil slice.
func (s *InviteService) ListByTrip(ctx context.Context, actorID, tripID uuid.UUID) ([]domain.InviteToken, error) {
	if _, err := activeTrip(ctx, s.trips, tripID); err != nil {
		return nil, fmt.Errorf("service.InviteService.ListByTrip: %w", err)
	}
	if err := s.guard.Require(ctx, tripID, actorID, domain.RoleAdmin); err != nil {
		return nil, fmt.Errorf("service.InviteService.ListByTrip: %w", err)
	}

	invites, err := s.invites.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.InviteService.ListByTrip: %w", err)
	}
	if invites == nil {
		invites = []domain.InviteToken{}
	}
	return invites, nil
}

// Revoke deactivates an invite so no further redemptions succeed.
// Admin-only. A redemption that already passed validation still hits the
// gate's is_active check and fails.
func (s *InviteService) Revoke(ctx context.Context, actorID, tripID, inviteID uuid.UUID) error {
	if _, err := activeTrip(ctx, s.trips, tripID); err != nil {
		return fmt.Errorf("service.InviteService.Revoke: %w", err)
	}
	if err := s.guard.Require(ctx, tripID, actorID, domain.RoleAdmin); err != nil {
		return fmt.Errorf("service.InviteService.Revoke: %w", err)
	}

	if err := s.invites.Revoke(ctx, tripID, inviteID); err != nil {
		// An unknown or already-revoked invite reads as the invite being
		// gone, not the trip.
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrInviteNotFound
		}
		return fmt.Errorf("service.InviteService.Revoke: %w", err)
	}
	return nil
}

// releaseUse compensates a claimed use after a failed membership write and
// returns the error the caller should surface. The release runs detached
// from the request's cancellation: a client that gave up mid-redemption
// must not be able to leak a claimed use.
func (s *InviteService) releaseUse(ctx context.Context, tok string, invite domain.InviteToken, joinErr error) error {
	relErr := s.invites.ReleaseUse(context.WithoutCancel(ctx), tok)
	if relErr == nil {
		return joinErr
	}

	s.log.ErrorContext(ctx, "invite use release failed; counter left over-counted",
		"invite_id", invite.ID,
		"trip_id", invite.TripID,
		"error", relErr)
	return multierr.Append(joinErr, fmt.Errorf("service.InviteService.Redeem: release use: %w", relErr))
}

// validateIssue enforces the issue-time bounds on invite parameters.
func validateIssue(maxUses, expiresInDays int, email string) error {
	if maxUses < domain.InviteMaxUsesFloor || maxUses > domain.InviteMaxUsesCeiling {
		return fmt.Errorf("%w: max_uses must be between %d and %d",
			domain.ErrValidation, domain.InviteMaxUsesFloor, domain.InviteMaxUsesCeiling)
	}
	if expiresInDays < domain.InviteExpiryDaysFloor || expiresInDays > domain.InviteExpiryDaysLimit {
		return fmt.Errorf("%w: expires_in_days must be between %d and %d",
			domain.ErrValidation, domain.InviteExpiryDaysFloor, domain.InviteExpiryDaysLimit)
	}
	if email = strings.TrimSpace(email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return fmt.Errorf("%w: invalid email address", domain.ErrValidation)
		}
	}
	return nil
}
