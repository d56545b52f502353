package http

import (
	"embed"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// handleIndex serves the single-page dashboard UI. The map tiles come from
// OpenStreetMap, so the page works without any API key configured.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS, "static/index.html")
}
