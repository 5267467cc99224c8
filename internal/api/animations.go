package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/rig/internal/curve"
	"github.com/inamate/rig/internal/document"
)

type addAnimationRequest struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
}

type keyframeRequest struct {
	Value  float64       `json:"value"`
	Easing *curve.Bezier `json:"easing"`
	// Ease builds the easing from curve.EasingCurve when Easing is absent.
	Ease *float64 `json:"ease"`
}

type playheadRequest struct {
	Frame float64 `json:"frame"`
}

func animationID(r *http.Request) string {
	return mux.Vars(r)["animationId"]
}

func (h *Handler) ListAnimations(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, h.engine.Animations())
}

func (h *Handler) AddAnimation(w http.ResponseWriter, r *http.Request) {
	var req addAnimationRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	id, err := h.engine.AddAnimation(req.Name, req.Length)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	a, _ := h.engine.Animation(id)
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) GetAnimation(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, err := h.engine.Animation(animationID(r))
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) RenameAnimation(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	id := animationID(r)
	if err := h.engine.RenameAnimation(id, req.Name); err != nil {
		h.handleEngineError(w, err)
		return
	}
	a, _ := h.engine.Animation(id)
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) RemoveAnimation(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.engine.RemoveAnimation(animationID(r)); err != nil {
		h.handleEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetKeyframe(w http.ResponseWriter, r *http.Request) {
	t, ok := propertyType(w, r)
	if !ok {
		return
	}
	var req keyframeRequest
	if !decode(w, r, &req) {
		return
	}
	frame, _ := strconv.Atoi(mux.Vars(r)["frame"])

	kf := document.Keyframe{Frame: frame, Value: req.Value, Easing: curve.Linear()}
	switch {
	case req.Easing != nil:
		kf.Easing = *req.Easing
	case req.Ease != nil:
		if *req.Ease < 0 || *req.Ease > 1 {
			writeError(w, http.StatusBadRequest, "ease must be within [0, 1]")
			return
		}
		kf.Easing = curve.EasingCurve(*req.Ease)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	id := animationID(r)
	if err := h.engine.SetKeyframe(id, nodeID(r), t, kf); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kf)
}

func (h *Handler) RemoveKeyframe(w http.ResponseWriter, r *http.Request) {
	t, ok := propertyType(w, r)
	if !ok {
		return
	}
	frame, _ := strconv.Atoi(mux.Vars(r)["frame"])

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.engine.RemoveKeyframe(animationID(r), nodeID(r), t, frame); err != nil {
		h.handleEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	frame, ok := queryFloat(w, r, "frame", 0)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	values, err := h.engine.Sample(animationID(r), frame)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (h *Handler) SetPlayhead(w http.ResponseWriter, r *http.Request) {
	var req playheadRequest
	if !decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.engine.SetPlayhead(animationID(r), req.Frame); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.DrawCommands())
}

// Bake returns every track sampled at samplesPerFrame steps per frame.
func (h *Handler) Bake(w http.ResponseWriter, r *http.Request) {
	spf, ok := queryFloat(w, r, "samplesPerFrame", 1)
	if !ok {
		return
	}
	if spf < 1 || spf != float64(int(spf)) {
		writeError(w, http.StatusBadRequest, "samplesPerFrame must be a positive integer")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	baked, err := h.engine.Bake(r.Context(), animationID(r), int(spf))
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, baked)
}

func (h *Handler) Draw(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, h.engine.DrawCommands())
}

func (h *Handler) HitTest(w http.ResponseWriter, r *http.Request) {
	x, ok := queryFloat(w, r, "x", 0)
	if !ok {
		return
	}
	y, ok := queryFloat(w, r, "y", 0)
	if !ok {
		return
	}
	radius, ok := queryFloat(w, r, "radius", 4)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]document.NodeID{"node": h.engine.HitTest(x, y, radius)})
}
