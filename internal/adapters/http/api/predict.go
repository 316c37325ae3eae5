// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/stepflow/stepflow/internal/domain/model"
)

// PredictHandler handles motion prediction requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests. The body is a Motion in the
// capture schema: frames of keypoints plus optional audio_bpm. Sparse but
// structurally valid motions (empty frames, single frame, missing BPM) are
// analyzed with documented defaults; only an absent frames field is a 400.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var motion model.Motion
	if err := json.NewDecoder(r.Body).Decode(&motion); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.Predict(r.Context(), motion)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
