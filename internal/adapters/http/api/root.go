// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// RootHandler reports service identity and liveness at /.
type RootHandler struct {
	deps Dependencies
}

// NewRootHandler creates a new root handler.
func NewRootHandler(deps Dependencies) *RootHandler {
	return &RootHandler{deps: deps}
}

type rootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, rootResponse{
		Service: "StepFlow AI",
		Version: h.deps.Version(),
		Status:  "running",
	})
}
