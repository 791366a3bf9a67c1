package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfare-app/api/internal/domain"
	"github.com/wayfare-app/api/internal/handler"
	"github.com/wayfare-app/api/internal/service"
)

// mockInviteServicer is a test double for handler.InviteServicer.
type mockInviteServicer struct {
	issue      func(ctx context.Context, tripID uuid.UUID, issuer domain.Identity, maxUses, expiresInDays int, email string) (domain.InviteToken, string, error)
	preview    func(ctx context.Context, token string) (service.InvitePreview, error)
	redeem     func(ctx context.Context, token string, identity domain.Identity) (service.JoinResult, error)
	listByTrip func(ctx context.Context, actorID, tripID uuid.UUID) ([]domain.InviteToken, error)
	revoke     func(ctx context.Context, actorID, tripID, inviteID uuid.UUID) error
}

func (m *mockInviteServicer) Issue(ctx context.Context, tripID uuid.UUID, issuer domain.Identity, maxUses, expiresInDays int, email string) (domain.InviteToken, string, error) {
	return m.issue(ctx, tripID, issuer, maxUses, expiresInDays, email)
}
func (m *mockInviteServicer) Preview(ctx context.Context, token string) (service.InvitePreview, error) {
	return m.preview(ctx, token)
}
func (m *mockInviteServicer) Redeem(ctx context.Context, token string, identity domain.Identity) (service.JoinResult, error) {
	return m.redeem(ctx, token, identity)
}
func (m *mockInviteServicer) ListByTrip(ctx context.Context, actorID, tripID uuid.UUID) ([]domain.InviteToken, error) {
	return m.listByTrip(ctx, actorID, tripID)
}
func (m *mockInviteServicer) Revoke(ctx context.Context, actorID, tripID, inviteID uuid.UUID) error {
	return m.revoke(ctx, actorID, tripID, inviteID)
}

// compile-time check: mockInviteServicer must satisfy handler.InviteServicer.
var _ handler.InviteServicer = (*mockInviteServicer)(nil)

const previewToken = "00112233445566778899aabbccddeeff"

func inviteFixture(tripID uuid.UUID) domain.InviteToken {
	return domain.InviteToken{
		ID:          uuid.New(),
		TripID:      tripID,
		Token:       previewToken,
		CreatedBy:   uuid.New(),
		MaxUses:     5,
		CurrentUses: 2,
		ExpiresAt:   time.Now().Add(72 * time.Hour).UTC(),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
}

// inviteWire mirrors the invite fields handlers serialize.
type inviteWire struct {
	ID            uuid.UUID `json:"id"`
	TripID        uuid.UUID `json:"trip_id"`
	Token         string    `json:"token"`
	Email         string    `json:"email"`
	MaxUses       int       `json:"max_uses"`
	CurrentUses   int       `json:"current_uses"`
	UsesRemaining int       `json:"uses_remaining"`
	IsActive      bool      `json:"is_active"`
}

// ---- GET /invite/{token} ---------------------------------------------------

func TestPreviewInvite_OK(t *testing.T) {
	trip := tripFixture()
	inv := inviteFixture(trip.ID)

	invites := &mockInviteServicer{
		preview: func(_ context.Context, token string) (service.InvitePreview, error) {
			assert.Equal(t, previewToken, token)
			return service.InvitePreview{Invite: inv, Trip: trip, ActiveMembers: 6}, nil
		},
	}
	// No identity: the preview is public.
	h := newRouter(nil, invites, allowAll(), nil)

	rec := doJSON(t, h, http.MethodGet, "/invite/"+previewToken, nil)

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var body struct {
		Success bool       `json:"success"`
		Invite  inviteWire `json:"invite"`
		Trip    tripWire   `json:"trip"`
	}
	decodeBody(t, rec, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Invite.UsesRemaining)
	assert.Equal(t, trip.Title, body.Trip.Title)
	require.NotNil(t, body.Trip.MemberCount)
	assert.Equal(t, 6, *body.Trip.MemberCount)
}

func TestPreviewInvite_NotFound(t *testing.T) {
	invites := &mockInviteServicer{
		preview: func(_ context.Context, _ string) (service.InvitePreview, error) {
			return service.InvitePreview{}, domain.ErrInviteNotFound
		},
	}
	h := newRouter(nil, invites, allowAll(), nil)

	rec := doJSON(t, h, http.MethodGet, "/invite/"+previewToken, nil)

	requireErrorCode(t, rec, http.StatusNotFound, "INVITE_NOT_FOUND")
}

func TestPreviewInvite_Expired(t *testing.T) {
	invites := &mockInviteServicer{
		preview: func(_ context.Context, _ string) (service.InvitePreview, error) {
			return service.InvitePreview{}, domain.ErrInviteExpired
		},
	}
	h := newRouter(nil, invites, allowAll(), nil)

	rec := doJSON(t, h, http.MethodGet, "/invite/"+previewToken, nil)

	requireErrorCode(t, rec, http.StatusGone, "INVITE_EXPIRED")
}

func TestPreviewInvite_UsedUp(t *testing.T) {
	invites := &mockInviteServicer{
		preview: func(_ context.Context, _ string) (service.InvitePreview, error) {
			return service.InvitePreview{}, domain.ErrInviteUsedUp
		},
	}
	h := newRouter(nil, invites, allowAll(), nil)

	rec := doJSON(t, h, http.MethodGet, "/invite/"+previewToken, nil)

	requireErrorCode(t, rec, http.StatusGone, "INVITE_USED_UP")
}

// ---- POST /invite/{token} --------------------------------------------------

func TestRedeemInvite_Created(t *testing.T) {
	identity := domain.Identity{ID: uuid.New(), Email: "dana@example.com"}
	trip := tripFixture()

	invites := &mockInviteServicer{
		redeem: func(_ context.Context, token string, got domain.Identity) (service.JoinResult, error) {
			assert.Equal(t, previewToken, token)
			assert.Equal(t, identity.ID, got.ID)
			return service.JoinResult{
				TripID:      trip.ID,
				TripTitle:   trip.Title,
				RedirectURL: "https://app.wayfare.example/trips/" + trip.ID.String(),
			}, nil
		},
	}
	h := newRouter(nil, invites, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodPost, "/invite/"+previewToken, nil)

	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var body struct {
		Success bool `json:"success"`
		Trip    struct {
			ID    uuid.UUID `json:"id"`
			Title string    `json:"title"`
		} `json:"trip"`
		RedirectURL string `json:"redirect_url"`
	}
	decodeBody(t, rec, &body)
	assert.True(t, body.Success)
	assert.Equal(t, trip.ID, body.Trip.ID)
	assert.Equal(t, trip.Title, body.Trip.Title)
	assert.Contains(t, body.RedirectURL, "/trips/"+trip.ID.String())
}

func TestRedeemInvite_Unauthenticated(t *testing.T) {
	// The redeem mock must not be reached.
	h := newRouter(nil, &mockInviteServicer{}, allowAll(), nil)

	rec := doJSON(t, h, http.MethodPost, "/invite/"+previewToken, nil)

	requireErrorCode(t, rec, http.StatusUnauthorized, "AUTH_REQUIRED")
}

func TestRedeemInvite_Conflicts(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		status     int
		code       string
	}{
		{"already member", domain.ErrAlreadyMember, http.StatusConflict, "ALREADY_MEMBER"},
		{"trip full", domain.ErrTripFull, http.StatusConflict, "TRIP_FULL"},
		{"email mismatch", domain.ErrEmailMismatch, http.StatusForbidden, "EMAIL_MISMATCH"},
		{"lost the last use", domain.ErrInviteUsedUp, http.StatusGone, "INVITE_USED_UP"},
		{"trip archived", domain.ErrNotFound, http.StatusNotFound, "TRIP_NOT_FOUND"},
	}

	identity := domain.Identity{ID: uuid.New()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invites := &mockInviteServicer{
				redeem: func(_ context.Context, _ string, _ domain.Identity) (service.JoinResult, error) {
					return service.JoinResult{}, tt.serviceErr
				},
			}
			h := newRouter(nil, invites, allowAll(), &identity)

			rec := doJSON(t, h, http.MethodPost, "/invite/"+previewToken, nil)

			requireErrorCode(t, rec, tt.status, tt.code)
		})
	}
}

// ---- POST /trips/{tripID}/invites ------------------------------------------

func TestIssueInvite_Created(t *testing.T) {
	identity := domain.Identity{ID: uuid.New(), Email: "admin@example.com"}
	trip := tripFixture()

	invites := &mockInviteServicer{
		issue: func(_ context.Context, tripID uuid.UUID, issuer domain.Identity, maxUses, expiresInDays int, email string) (domain.InviteToken, string, error) {
			assert.Equal(t, trip.ID, tripID)
			assert.Equal(t, identity.ID, issuer.ID)
			assert.Equal(t, 10, maxUses)
			assert.Equal(t, 14, expiresInDays)
			assert.Equal(t, "friend@example.com", email)

			inv := inviteFixture(tripID)
			inv.MaxUses = maxUses
			inv.CurrentUses = 0
			return inv, "https://app.wayfare.example/invite/" + inv.Token, nil
		},
	}
	h := newRouter(nil, invites, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodPost, "/trips/"+trip.ID.String()+"/invites", map[string]any{
		"max_uses":        10,
		"expires_in_days": 14,
		"email":           "friend@example.com",
	})

	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var body struct {
		Success  bool       `json:"success"`
		Invite   inviteWire `json:"invite"`
		ShareURL string     `json:"share_url"`
	}
	decodeBody(t, rec, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 10, body.Invite.MaxUses)
	assert.Equal(t, "https://app.wayfare.example/invite/"+body.Invite.Token, body.ShareURL)
}

func TestIssueInvite_Defaults(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	trip := tripFixture()

	invites := &mockInviteServicer{
		issue: func(_ context.Context, _ uuid.UUID, _ domain.Identity, maxUses, expiresInDays int, email string) (domain.InviteToken, string, error) {
			assert.Equal(t, 1, maxUses, "omitted max_uses defaults to single use")
			assert.Equal(t, 7, expiresInDays, "omitted expiry defaults to a week")
			assert.Empty(t, email)
			return inviteFixture(trip.ID), "https://app.wayfare.example/invite/" + previewToken, nil
		},
	}
	h := newRouter(nil, invites, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodPost, "/trips/"+trip.ID.String()+"/invites", map[string]any{})

	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
}

func TestIssueInvite_GuestForbidden(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	// denyWith fires in the requireRole(admin) gate; the nil issue field
	// would panic if the handler were reached.
	h := newRouter(nil, &mockInviteServicer{}, denyWith(domain.ErrNotAuthorized), &identity)

	rec := doJSON(t, h, http.MethodPost, "/trips/"+uuid.NewString()+"/invites", map[string]any{})

	requireErrorCode(t, rec, http.StatusForbidden, "NOT_AUTHORIZED")
}

// ---- GET /trips/{tripID}/invites -------------------------------------------

func TestListInvites_OK(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	trip := tripFixture()

	revoked := inviteFixture(trip.ID)
	revoked.IsActive = false

	invites := &mockInviteServicer{
		listByTrip: func(_ context.Context, actorID, tripID uuid.UUID) ([]domain.InviteToken, error) {
			assert.Equal(t, identity.ID, actorID)
			assert.Equal(t, trip.ID, tripID)
			return []domain.InviteToken{inviteFixture(trip.ID), revoked}, nil
		},
	}
	h := newRouter(nil, invites, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodGet, "/trips/"+trip.ID.String()+"/invites", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool         `json:"success"`
		Invites []inviteWire `json:"invites"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Invites, 2)
	assert.True(t, body.Invites[0].IsActive)
	assert.False(t, body.Invites[1].IsActive, "revoked invites stay visible to admins")
}

// ---- DELETE /trips/{tripID}/invites/{inviteID} -----------------------------

func TestRevokeInvite_NoContent(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	trip := tripFixture()
	inviteID := uuid.New()

	invites := &mockInviteServicer{
		revoke: func(_ context.Context, actorID, tripID, id uuid.UUID) error {
			assert.Equal(t, identity.ID, actorID)
			assert.Equal(t, trip.ID, tripID)
			assert.Equal(t, inviteID, id)
			return nil
		},
	}
	h := newRouter(nil, invites, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodDelete, "/trips/"+trip.ID.String()+"/invites/"+inviteID.String(), nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRevokeInvite_Unknown(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	invites := &mockInviteServicer{
		revoke: func(_ context.Context, _, _, _ uuid.UUID) error {
			return domain.ErrInviteNotFound
		},
	}
	h := newRouter(nil, invites, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodDelete, "/trips/"+uuid.NewString()+"/invites/"+uuid.NewString(), nil)

	requireErrorCode(t, rec, http.StatusNotFound, "INVITE_NOT_FOUND")
}
