package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wayfare-app/api/internal/domain"
)

// errorBody is the flat failure envelope. Clients branch on Code alone;
// Message is for humans and logs.
type errorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError translates a service error into the HTTP status and envelope
// code the API contract names for it. Anything unrecognized is a 500: the
// cause is logged with the request context but never echoed to the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.respondCode(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "request body too large")
		return
	}

	switch {
	case errors.Is(err, domain.ErrInviteNotFound):
		s.respondCode(w, http.StatusNotFound, "INVITE_NOT_FOUND", "invite not found")
	case errors.Is(err, domain.ErrInviteExpired):
		s.respondCode(w, http.StatusGone, "INVITE_EXPIRED", "this invite link has expired")
	case errors.Is(err, domain.ErrInviteUsedUp):
		s.respondCode(w, http.StatusGone, "INVITE_USED_UP", "this invite link has no uses left")
	case errors.Is(err, domain.ErrAlreadyMember):
		s.respondCode(w, http.StatusConflict, "ALREADY_MEMBER", "you are already a member of this trip")
	case errors.Is(err, domain.ErrTripFull):
		s.respondCode(w, http.StatusConflict, "TRIP_FULL", "this trip has reached its member limit")
	case errors.Is(err, domain.ErrEmailMismatch):
		s.respondCode(w, http.StatusForbidden, "EMAIL_MISMATCH", "this invite was issued for a different email address")
	case errors.Is(err, domain.ErrNotAuthorized):
		s.respondCode(w, http.StatusForbidden, "NOT_AUTHORIZED", "you do not have permission to do that")
	case errors.Is(err, domain.ErrNotFound):
		s.respondCode(w, http.StatusNotFound, "TRIP_NOT_FOUND", "trip not found")
	case errors.Is(err, domain.ErrValidation):
		s.respondCode(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationMessage(err))
	default:
		s.log.ErrorContext(r.Context(), "request failed", "error", err)
		s.respondCode(w, http.StatusInternalServerError, "INTERNAL_ERROR", "something went wrong")
	}
}

// validationMessage extracts the human-readable tail from a wrapped
// validation error, e.g.
// "service.TripService.Create: validation error: title is required"
// becomes "title is required".
func validationMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}
