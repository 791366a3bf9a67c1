package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wayfare-app/api/internal/domain"
	"github.com/wayfare-app/api/internal/middleware"
)

// respond writes payload as JSON with the given status. Encoding failures
// are logged, not surfaced: by that point the status line is already gone.
func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("response encoding failed", "error", err)
	}
}

// respondCode writes the flat error envelope clients key their handling off:
// {"success":false,"code":...,"message":...}.
func (s *Server) respondCode(w http.ResponseWriter, status int, code, message string) {
	s.respond(w, status, errorBody{Success: false, Code: code, Message: message})
}

// decodeJSON decodes the request body into dst. An entirely empty body
// leaves dst at its zero value, letting field-level validation name what is
// missing. Malformed bodies come back as ErrValidation; bodies over the
// configured size cap keep their *http.MaxBytesError identity so
// respondError can answer 413.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	return nil
}

// urlUUID parses the named chi URL parameter as a UUID.
func urlUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid UUID", domain.ErrValidation, name)
	}
	return id, nil
}

// queryInt reads an optional integer query parameter; absent or garbled
// values read as nil and fall back to the pagination defaults.
func queryInt(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// identityOr401 pulls the authenticated identity from the context, writing
// the 401 envelope when it is absent. Absence means the route was wired
// without the authenticate middleware; the check keeps that mistake from
// turning into a nil-identity request.
func (s *Server) identityOr401(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		s.respondCode(w, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
	}
	return identity, ok
}
