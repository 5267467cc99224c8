package api

import (
	"net/http"
	"strings"

	"github.com/inamate/rig/internal/document"
	"github.com/inamate/rig/internal/engine"
)

type statusResponse struct {
	ID          string      `json:"id"`
	Dirty       bool        `json:"dirty"`
	Mode        engine.Mode `json:"mode"`
	Version     int64       `json:"version"`
	CanUndo     bool        `json:"canUndo"`
	CanRedo     bool        `json:"canRedo"`
	AssetFolder string      `json:"assetFolder"`
}

type sampleRequest struct {
	Name string `json:"name"`
}

type assetFolderRequest struct {
	Folder string `json:"folder"`
}

type modeRequest struct {
	Mode engine.Mode `json:"mode"`
}

func (h *Handler) status() statusResponse {
	return statusResponse{
		ID:          h.engine.ID(),
		Dirty:       h.engine.Dirty(),
		Mode:        h.engine.Mode(),
		Version:     h.engine.CurrentVersion(),
		CanUndo:     h.engine.CanUndo(),
		CanRedo:     h.engine.CanRedo(),
		AssetFolder: h.engine.AssetFolder(),
	}
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) LoadDocument(w http.ResponseWriter, r *http.Request) {
	var s document.Snapshot
	if !decode(w, r, &s) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.engine.Load(s); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

func (h *Handler) LoadSample(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if !decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "sample"
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.LoadSampleDocument(name)
	writeJSON(w, http.StatusOK, h.status())
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, h.status())
}

func (h *Handler) MarkSaved(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.MarkSaved()
	writeJSON(w, http.StatusOK, h.status())
}

func (h *Handler) SetMetadata(w http.ResponseWriter, r *http.Request) {
	var meta document.Metadata
	if !decode(w, r, &meta) {
		return
	}
	if meta.FPS <= 0 || meta.Width <= 0 || meta.Height <= 0 {
		writeError(w, http.StatusBadRequest, "fps, width and height must be positive")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.SetMetadata(meta)
	writeJSON(w, http.StatusOK, h.engine.Metadata())
}

func (h *Handler) SetAssetFolder(w http.ResponseWriter, r *http.Request) {
	var req assetFolderRequest
	if !decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.SetAssetFolder(req.Folder)
	writeJSON(w, http.StatusOK, h.status())
}

func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Mode != engine.ModeDesign && req.Mode != engine.ModeAnimate {
		writeError(w, http.StatusBadRequest, "mode must be design or animate")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.SetMode(req.Mode)
	writeJSON(w, http.StatusOK, h.status())
}
