package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfare-app/api/internal/domain"
)

// ---- GET /trips/{tripID}/members -------------------------------------------

func TestListMembers_OK(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	trip := tripFixture()
	inviter := uuid.New()

	trips := &mockTripServicer{
		members: func(_ context.Context, actorID, tripID uuid.UUID) ([]domain.Membership, error) {
			assert.Equal(t, identity.ID, actorID)
			assert.Equal(t, trip.ID, tripID)
			return []domain.Membership{
				{UserID: trip.CreatedBy, TripID: trip.ID, Role: domain.RoleAdmin, JoinedAt: time.Now().UTC()},
				{UserID: uuid.New(), TripID: trip.ID, Role: domain.RoleGuest, InvitedBy: &inviter, JoinedAt: time.Now().UTC()},
			}, nil
		},
	}
	h := newRouter(trips, nil, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodGet, "/trips/"+trip.ID.String()+"/members", nil)

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var body struct {
		Success bool `json:"success"`
		Members []struct {
			UserID    uuid.UUID  `json:"user_id"`
			Role      string     `json:"role"`
			InvitedBy *uuid.UUID `json:"invited_by"`
		} `json:"members"`
	}
	decodeBody(t, rec, &body)
	assert.True(t, body.Success)
	require.Len(t, body.Members, 2)
	assert.Equal(t, "admin", body.Members[0].Role)
	assert.Nil(t, body.Members[0].InvitedBy, "the creator was invited by nobody")
	assert.Equal(t, "guest", body.Members[1].Role)
	require.NotNil(t, body.Members[1].InvitedBy)
	assert.Equal(t, inviter, *body.Members[1].InvitedBy)
}

// ---- POST /trips/{tripID}/leave --------------------------------------------

func TestLeaveTrip_NoContent(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	trip := tripFixture()

	left := false
	trips := &mockTripServicer{
		leave: func(_ context.Context, actorID, tripID uuid.UUID) error {
			assert.Equal(t, identity.ID, actorID)
			assert.Equal(t, trip.ID, tripID)
			left = true
			return nil
		},
	}
	h := newRouter(trips, nil, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodPost, "/trips/"+trip.ID.String()+"/leave", nil)

	require.Equal(t, http.StatusNoContent, rec.Code, "body: %s", rec.Body.String())
	assert.True(t, left)
}

func TestLeaveTrip_NotAMember(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	trips := &mockTripServicer{
		leave: func(_ context.Context, _, _ uuid.UUID) error {
			return domain.ErrNotFound
		},
	}
	h := newRouter(trips, nil, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodPost, "/trips/"+uuid.NewString()+"/leave", nil)

	requireErrorCode(t, rec, http.StatusNotFound, "TRIP_NOT_FOUND")
}

// ---- DELETE /trips/{tripID}/members/{userID} -------------------------------

func TestRemoveMember_NoContent(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	trip := tripFixture()
	target := uuid.New()

	trips := &mockTripServicer{
		removeMember: func(_ context.Context, actorID, tripID, userID uuid.UUID) error {
			assert.Equal(t, identity.ID, actorID)
			assert.Equal(t, trip.ID, tripID)
			assert.Equal(t, target, userID)
			return nil
		},
	}
	h := newRouter(trips, nil, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodDelete, "/trips/"+trip.ID.String()+"/members/"+target.String(), nil)

	require.Equal(t, http.StatusNoContent, rec.Code, "body: %s", rec.Body.String())
}

func TestRemoveMember_SelfRejected(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	trips := &mockTripServicer{
		removeMember: func(_ context.Context, _, _, _ uuid.UUID) error {
			return fmt.Errorf("%w: use leave to remove yourself", domain.ErrValidation)
		},
	}
	h := newRouter(trips, nil, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodDelete, "/trips/"+uuid.NewString()+"/members/"+identity.ID.String(), nil)

	env := requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	assert.Equal(t, "use leave to remove yourself", env.Message)
}

func TestRemoveMember_BadUserID(t *testing.T) {
	identity := domain.Identity{ID: uuid.New()}
	// The garbled userID never reaches the servicer; the nil field would panic.
	h := newRouter(&mockTripServicer{}, nil, allowAll(), &identity)

	rec := doJSON(t, h, http.MethodDelete, "/trips/"+uuid.NewString()+"/members/not-a-uuid", nil)

	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}
