package api

import (
	"net/http"
	"strconv"

	"github.com/inamate/rig/internal/history"
)

const defaultJournalLimit = 50

type historyResponse struct {
	Version int64           `json:"version"`
	Undo    []history.Entry `json:"undo"`
	Redo    []history.Entry `json:"redo"`
}

type jumpRequest struct {
	Version int64 `json:"version"`
}

func (h *Handler) history() historyResponse {
	return historyResponse{
		Version: h.engine.CurrentVersion(),
		Undo:    h.engine.UndoEntries(),
		Redo:    h.engine.RedoEntries(),
	}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, h.history())
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.Undo()
	writeJSON(w, http.StatusOK, h.history())
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.Redo()
	writeJSON(w, http.StatusOK, h.history())
}

func (h *Handler) Jump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Version < 0 {
		writeError(w, http.StatusBadRequest, "version must not be negative")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.JumpToVersion(req.Version)
	writeJSON(w, http.StatusOK, h.history())
}

// Journal lists the durable history of the open document, newest first.
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusNotFound, "journal is disabled")
		return
	}
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.journal.List(r.Context(), h.DocumentID(), limit)
	if err != nil {
		h.logger.Error("list journal failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
