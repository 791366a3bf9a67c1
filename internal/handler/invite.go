package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wayfare-app/api/internal/domain"
)

type inviteJSON struct {
	ID            uuid.UUID `json:"id"`
	TripID        uuid.UUID `json:"trip_id"`
	Token         string    `json:"token"`
	Email         string    `json:"email,omitempty"`
	MaxUses       int       `json:"max_uses"`
	CurrentUses   int       `json:"current_uses"`
	UsesRemaining int       `json:"uses_remaining"`
	ExpiresAt     time.Time `json:"expires_at"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func inviteToJSON(inv domain.InviteToken) inviteJSON {
	return inviteJSON{
		ID:            inv.ID,
		TripID:        inv.TripID,
		Token:         inv.Token,
		Email:         inv.Email,
		MaxUses:       inv.MaxUses,
		CurrentUses:   inv.CurrentUses,
		UsesRemaining: inv.UsesRemaining(),
		ExpiresAt:     inv.ExpiresAt,
		IsActive:      inv.IsActive,
		CreatedAt:     inv.CreatedAt,
	}
}

// issueInviteRequest is the wire shape for issuing an invite. Every field
// is optional: one use, seven days, no email restriction by default.
type issueInviteRequest struct {
	MaxUses       *int   `json:"max_uses"`
	ExpiresInDays *int   `json:"expires_in_days"`
	Email         string `json:"email"`
}

type issueInviteResponse struct {
	Success  bool       `json:"success"`
	Invite   inviteJSON `json:"invite"`
	ShareURL string     `json:"share_url"`
}

type previewInviteResponse struct {
	Success bool       `json:"success"`
	Invite  inviteJSON `json:"invite"`
	Trip    tripJSON   `json:"trip"`
}

type redeemInviteResponse struct {
	Success     bool       `json:"success"`
	Trip        joinedTrip `json:"trip"`
	RedirectURL string     `json:"redirect_url"`
}

type joinedTrip struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type inviteListResponse struct {
	Success bool         `json:"success"`
	Invites []inviteJSON `json:"invites"`
}

// handlePreviewInvite serves GET /invite/{token}, the public landing page
// data. No auth, no side effects; the service collapses revoked tokens and
// archived trips into INVITE_NOT_FOUND so probing reveals nothing.
func (s *Server) handlePreviewInvite(w http.ResponseWriter, r *http.Request) {
	preview, err := s.invites.Preview(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	trip := tripToJSON(preview.Trip)
	trip.MemberCount = &preview.ActiveMembers
	s.respond(w, http.StatusOK, previewInviteResponse{
		Success: true,
		Invite:  inviteToJSON(preview.Invite),
		Trip:    trip,
	})
}

// handleRedeemInvite serves POST /invite/{token}: the authenticated caller
// joins the trip behind the token. 201 on admission with the URL the
// frontend should land on.
func (s *Server) handleRedeemInvite(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}

	result, err := s.invites.Redeem(r.Context(), chi.URLParam(r, "token"), identity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, http.StatusCreated, redeemInviteResponse{
		Success:     true,
		Trip:        joinedTrip{ID: result.TripID, Title: result.TripTitle},
		RedirectURL: result.RedirectURL,
	})
}

// handleIssueInvite serves POST /trips/{tripID}/invites. Admin only.
func (s *Server) handleIssueInvite(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}
	tripID, err := urlUUID(r, "tripID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req issueInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	maxUses := 1
	if req.MaxUses != nil {
		maxUses = *req.MaxUses
	}
	expiresInDays := 7
	if req.ExpiresInDays != nil {
		expiresInDays = *req.ExpiresInDays
	}

	invite, shareURL, err := s.invites.Issue(r.Context(), tripID, identity, maxUses, expiresInDays, req.Email)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, http.StatusCreated, issueInviteResponse{
		Success:  true,
		Invite:   inviteToJSON(invite),
		ShareURL: shareURL,
	})
}

// handleListInvites serves GET /trips/{tripID}/invites, newest first,
// revoked and exhausted invites included. Admin only.
func (s *Server) handleListInvites(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}
	tripID, err := urlUUID(r, "tripID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	invites, err := s.invites.ListByTrip(r.Context(), identity.ID, tripID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := make([]inviteJSON, len(invites))
	for i, inv := range invites {
		data[i] = inviteToJSON(inv)
	}
	s.respond(w, http.StatusOK, inviteListResponse{Success: true, Invites: data})
}

// handleRevokeInvite serves DELETE /trips/{tripID}/invites/{inviteID}.
// Admin only. Revocation wins against any redemption that has not yet
// passed the usage gate.
func (s *Server) handleRevokeInvite(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}
	tripID, err := urlUUID(r, "tripID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	inviteID, err := urlUUID(r, "inviteID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.invites.Revoke(r.Context(), identity.ID, tripID, inviteID); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
