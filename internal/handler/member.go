package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wayfare-app/api/internal/domain"
)

type memberJSON struct {
	UserID    uuid.UUID   `json:"user_id"`
	Role      domain.Role `json:"role"`
	InvitedBy *uuid.UUID  `json:"invited_by,omitempty"`
	JoinedAt  time.Time   `json:"joined_at"`
}

type memberListResponse struct {
	Success bool         `json:"success"`
	Members []memberJSON `json:"members"`
}

// handleListMembers serves GET /trips/{tripID}/members: the active roster,
// admins first.
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}
	tripID, err := urlUUID(r, "tripID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	members, err := s.trips.Members(r.Context(), identity.ID, tripID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := make([]memberJSON, len(members))
	for i, m := range members {
		data[i] = memberJSON{
			UserID:    m.UserID,
			Role:      m.Role,
			InvitedBy: m.InvitedBy,
			JoinedAt:  m.JoinedAt,
		}
	}
	s.respond(w, http.StatusOK, memberListResponse{Success: true, Members: data})
}

// handleLeaveTrip serves POST /trips/{tripID}/leave: the caller deactivates
// their own membership. Rejoining later through a fresh invite revives the
// same row.
func (s *Server) handleLeaveTrip(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}
	tripID, err := urlUUID(r, "tripID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.trips.Leave(r.Context(), identity.ID, tripID); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveMember serves DELETE /trips/{tripID}/members/{userID}.
// Admin only; self-removal is rejected in the service so an admin cannot
// strand a trip by accident.
func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}
	tripID, err := urlUUID(r, "tripID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	userID, err := urlUUID(r, "userID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.trips.RemoveMember(r.Context(), identity.ID, tripID, userID); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
