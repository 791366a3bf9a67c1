package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wayfare-app/api/internal/domain"
)

// Router assembles the route table. authenticate is the bearer-token
// middleware from internal/middleware; it is injected rather than built
// here so tests can substitute a stub that plants a known identity.
//
// The invite preview is the only public feature route: an invite link must
// render for visitors who have no account yet. Everything else runs behind
// authenticate, and trip-scoped subtrees additionally behind requireRole.
func (s *Server) Router(authenticate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/openapi.yaml", s.handleOpenAPI)
	r.Get("/docs", s.handleDocs)

	r.Get("/invite/{token}", s.handlePreviewInvite)
	r.With(authenticate).Post("/invite/{token}", s.handleRedeemInvite)

	r.Route("/trips", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", s.handleCreateTrip)
		r.Get("/", s.handleListTrips)

		r.Route("/{tripID}", func(r chi.Router) {
			r.Use(s.requireRole(domain.RoleGuest))

			r.Get("/", s.handleGetTrip)
			r.Put("/", s.handleUpdateTrip)
			r.Delete("/", s.handleArchiveTrip)

			r.Get("/members", s.handleListMembers)
			r.Post("/leave", s.handleLeaveTrip)
			r.Delete("/members/{userID}", s.handleRemoveMember)

			r.Route("/invites", func(r chi.Router) {
				r.Use(s.requireRole(domain.RoleAdmin))

				r.Post("/", s.handleIssueInvite)
				r.Get("/", s.handleListInvites)
				r.Delete("/{inviteID}", s.handleRevokeInvite)
			})
		})
	})

	return r
}

// requireRole gates a trip-scoped subtree: it parses {tripID}, resolves the
// authenticated identity, and rejects callers below the minimum role before
// any feature handler runs. Services re-check through the same guard for
// their operation-level preconditions, so a route slipping through here
// still cannot act.
func (s *Server) requireRole(minimum domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := s.identityOr401(w, r)
			if !ok {
				return
			}

			tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
			if err != nil {
				s.respondCode(w, http.StatusNotFound, "TRIP_NOT_FOUND", "trip not found")
				return
			}

			if err := s.guard.Require(r.Context(), tripID, identity.ID, minimum); err != nil {
				s.respondError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
