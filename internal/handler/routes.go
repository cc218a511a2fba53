package handler

import (
	"net/http"

	"github.com/tripmate/travel-platform/internal/route"
)

type resolveResponse struct {
	Path  string `json:"path"`
	Found bool   `json:"found"`
}

// ResolveRoute handles GET /api/v1/routes/resolve?path= by mapping a client
// path to the view the web app renders for it.
func ResolveRoute(w http.ResponseWriter, r *http.Request) {
	path, found := route.Resolve(r.URL.Query().Get("path"))
	writeJSON(w, http.StatusOK, resolveResponse{Path: path, Found: found})
}

// NotFound answers unknown API paths with a redirect to the home route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Redirect: route.Home})
}
