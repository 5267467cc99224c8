// Package api exposes the engine's command surface over HTTP.
//
// The engine is single-writer; every handler holds the handler mutex for the
// whole engine call, including the synchronous bus delivery it triggers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/inamate/rig/internal/document"
	"github.com/inamate/rig/internal/engine"
	"github.com/inamate/rig/internal/journal"
)

// EntryLister reads journaled history entries.
type EntryLister interface {
	List(ctx context.Context, document string, limit int) ([]journal.Entry, error)
}

type Handler struct {
	mu      sync.Mutex
	engine  *engine.Engine
	journal EntryLister
	logger  *slog.Logger
}

// NewHandler serves eng. journal may be nil when journaling is disabled.
func NewHandler(eng *engine.Engine, journal EntryLister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, journal: journal, logger: logger}
}

// DocumentID returns the id of the open document. Safe for concurrent use.
func (h *Handler) DocumentID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.ID()
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/document", h.GetDocument).Methods("GET")
	r.HandleFunc("/document", h.LoadDocument).Methods("PUT")
	r.HandleFunc("/document/sample", h.LoadSample).Methods("POST")
	r.HandleFunc("/document/status", h.Status).Methods("GET")
	r.HandleFunc("/document/saved", h.MarkSaved).Methods("POST")
	r.HandleFunc("/document/metadata", h.SetMetadata).Methods("PUT")
	r.HandleFunc("/document/asset-folder", h.SetAssetFolder).Methods("PUT")
	r.HandleFunc("/mode", h.SetMode).Methods("PUT")

	r.HandleFunc("/nodes", h.AddNode).Methods("POST")
	r.HandleFunc("/nodes/{nodeId:[0-9]+}", h.GetNode).Methods("GET")
	r.HandleFunc("/nodes/{nodeId:[0-9]+}", h.RenameNode).Methods("PATCH")
	r.HandleFunc("/nodes/{nodeId:[0-9]+}", h.RemoveNode).Methods("DELETE")
	r.HandleFunc("/nodes/{nodeId:[0-9]+}/move", h.MoveNode).Methods("POST")
	r.HandleFunc("/nodes/{nodeId:[0-9]+}/draw-order", h.SetDrawOrder).Methods("PUT")
	r.HandleFunc("/nodes/{nodeId:[0-9]+}/properties/{property}", h.SetProperty).Methods("PUT")
	r.HandleFunc("/pose/reset", h.ResetPose).Methods("POST")

	r.HandleFunc("/animations", h.ListAnimations).Methods("GET")
	r.HandleFunc("/animations", h.AddAnimation).Methods("POST")
	r.HandleFunc("/animations/{animationId}", h.GetAnimation).Methods("GET")
	r.HandleFunc("/animations/{animationId}", h.RenameAnimation).Methods("PATCH")
	r.HandleFunc("/animations/{animationId}", h.RemoveAnimation).Methods("DELETE")
	r.HandleFunc("/animations/{animationId}/tracks/{nodeId:[0-9]+}/{property}/keys/{frame:[0-9]+}", h.SetKeyframe).Methods("PUT")
	r.HandleFunc("/animations/{animationId}/tracks/{nodeId:[0-9]+}/{property}/keys/{frame:[0-9]+}", h.RemoveKeyframe).Methods("DELETE")
	r.HandleFunc("/animations/{animationId}/sample", h.Sample).Methods("GET")
	r.HandleFunc("/animations/{animationId}/playhead", h.SetPlayhead).Methods("PUT")
	r.HandleFunc("/animations/{animationId}/bake", h.Bake).Methods("GET")

	r.HandleFunc("/draw", h.Draw).Methods("GET")
	r.HandleFunc("/hit", h.HitTest).Methods("GET")

	r.HandleFunc("/history", h.History).Methods("GET")
	r.HandleFunc("/history/undo", h.Undo).Methods("POST")
	r.HandleFunc("/history/redo", h.Redo).Methods("POST")
	r.HandleFunc("/history/jump", h.Jump).Methods("POST")
	r.HandleFunc("/history/journal", h.Journal).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleEngineError maps command validation errors onto status codes.
func (h *Handler) handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrCycle):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrInvalidDocument):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	// Checked before not-found: a missing parent is a bad argument.
	case errors.Is(err, engine.ErrInvalidParent),
		errors.Is(err, engine.ErrUnknownProperty),
		errors.Is(err, engine.ErrNotSprite),
		errors.Is(err, engine.ErrFrameOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrNodeNotFound), errors.Is(err, engine.ErrAnimationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("engine command failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func nodeID(r *http.Request) document.NodeID {
	// The route pattern only admits digits.
	id, _ := strconv.Atoi(mux.Vars(r)["nodeId"])
	return document.NodeID(id)
}

func propertyType(w http.ResponseWriter, r *http.Request) (document.PropertyType, bool) {
	t := document.PropertyType(mux.Vars(r)["property"])
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "unknown property "+string(t))
		return "", false
	}
	return t, true
}

func queryFloat(w http.ResponseWriter, r *http.Request, name string, def float64) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}
