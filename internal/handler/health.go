package handler

import "net/http"

// handleHealth serves GET /healthz. 200 {"status":"ok"} while the process
// is accepting requests; load balancers and uptime checks poll it.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
