package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type sessionRequest struct {
	Editor    string `json:"editor"`
	AccessKey string `json:"accessKey"`
}

type sessionResponse struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Editor = strings.TrimSpace(req.Editor)
	if req.Editor == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "editor is required"})
		return
	}

	token, session, err := h.service.OpenSession(req.Editor, req.AccessKey)
	if err != nil {
		if errors.Is(err, ErrInvalidAccessKey) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid access key"})
			return
		}
		slog.Error("open session failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, Session: session})
}

// Me returns the session of the calling editor.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no session"})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
