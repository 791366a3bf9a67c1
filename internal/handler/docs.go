package handler

import (
	"net/http"

	"github.com/wayfare-app/api/spec"
)

// scalarPage embeds the Scalar API reference UI, pointed at the spec the
// binary itself serves. No assets to deploy, nothing to drift.
const scalarPage = `<!doctype html>
<html>
  <head>
    <title>Wayfare API</title>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
  </head>
  <body>
    <script id="api-reference" data-url="/openapi.yaml"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
  </body>
</html>`

// handleOpenAPI serves GET /openapi.yaml from the embedded spec bytes.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(spec.OpenAPI); err != nil {
		s.log.Error("spec write failed", "error", err)
	}
}

// handleDocs serves GET /docs, the interactive API reference.
func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(scalarPage)); err != nil {
		s.log.Error("docs write failed", "error", err)
	}
}
