package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/wayfare-app/api/internal/domain"
)

// tripRequest is the wire shape for creating and updating trips.
// Dates are date-only strings (2006-01-02).
type tripRequest struct {
	Title       string             `json:"title"`
	Destination string             `json:"destination"`
	StartDate   openapi_types.Date `json:"start_date"`
	EndDate     openapi_types.Date `json:"end_date"`
	Status      string             `json:"status"`
	MaxMembers  *int               `json:"max_members"`
}

func (req tripRequest) toDomain() domain.Trip {
	return domain.Trip{
		Title:       req.Title,
		Destination: req.Destination,
		StartDate:   req.StartDate.Time,
		EndDate:     req.EndDate.Time,
		Status:      domain.TripStatus(req.Status),
		MaxMembers:  req.MaxMembers,
	}
}

type tripJSON struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Destination string             `json:"destination,omitempty"`
	StartDate   openapi_types.Date `json:"start_date"`
	EndDate     openapi_types.Date `json:"end_date"`
	Status      domain.TripStatus  `json:"status"`
	MaxMembers  *int               `json:"max_members,omitempty"`
	MemberCount *int               `json:"member_count,omitempty"`
	CreatedBy   uuid.UUID          `json:"created_by"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func tripToJSON(t domain.Trip) tripJSON {
	return tripJSON{
		ID:          t.ID,
		Title:       t.Title,
		Destination: t.Destination,
		StartDate:   openapi_types.Date{Time: t.StartDate},
		EndDate:     openapi_types.Date{Time: t.EndDate},
		Status:      t.Status,
		MaxMembers:  t.MaxMembers,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type tripResponse struct {
	Success bool     `json:"success"`
	Trip    tripJSON `json:"trip"`
}

type paginationJSON struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type tripListResponse struct {
	Success    bool           `json:"success"`
	Trips      []tripJSON     `json:"trips"`
	Pagination paginationJSON `json:"pagination"`
}

// handleCreateTrip serves POST /trips. The caller becomes the trip's admin
// in the same transaction that creates the row.
func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}

	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	created, err := s.trips.Create(r.Context(), identity.ID, req.toDomain())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, http.StatusCreated, tripResponse{Success: true, Trip: tripToJSON(created)})
}

// handleListTrips serves GET /trips: the trips the caller is an active
// member of, paginated with ?page= and ?limit=.
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}

	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))
	trips, total, err := s.trips.List(r.Context(), identity.ID, params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := make([]tripJSON, len(trips))
	for i, t := range trips {
		data[i] = tripToJSON(t)
	}
	s.respond(w, http.StatusOK, tripListResponse{
		Success: true,
		Trips:   data,
		Pagination: paginationJSON{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// handleGetTrip serves GET /trips/{tripID}: the trip snapshot plus its live
// active-member count.
func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}
	tripID, err := urlUUID(r, "tripID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	trip, memberCount, err := s.trips.GetByID(r.Context(), identity.ID, tripID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	body := tripToJSON(trip)
	body.MemberCount = &memberCount
	s.respond(w, http.StatusOK, tripResponse{Success: true, Trip: body})
}

// handleUpdateTrip serves PUT /trips/{tripID}. Admin only; the whole
// editable surface is replaced.
func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}
	tripID, err := urlUUID(r, "tripID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	trip := req.toDomain()
	trip.ID = tripID

	updated, err := s.trips.Update(r.Context(), identity.ID, trip)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, tripResponse{Success: true, Trip: tripToJSON(updated)})
}

// handleArchiveTrip serves DELETE /trips/{tripID}. Admin only. Archiving is
// a soft delete: the row stays, invites stop resolving, the trip drops out
// of listings.
func (s *Server) handleArchiveTrip(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identityOr401(w, r)
	if !ok {
		return
	}
	tripID, err := urlUUID(r, "tripID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.trips.Archive(r.Context(), identity.ID, tripID); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
