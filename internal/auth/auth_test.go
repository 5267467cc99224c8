package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIssueAndValidateToken(t *testing.T) {
	s := NewService("secret", time.Hour, "")
	token, issued, err := s.IssueToken("ada")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != issued.ID || got.EditorID != issued.EditorID || got.Editor != "ada" {
		t.Errorf("session = %+v, want %+v", got, issued)
	}
	if !got.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Errorf("expires = %v, want %v", got.ExpiresAt, issued.ExpiresAt)
	}
	if !strings.HasPrefix(got.ID, "sess_") {
		t.Errorf("session id = %q", got.ID)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	s := NewService("secret", time.Hour, "")
	token, _, _ := s.IssueToken("ada")

	other := NewService("other", time.Hour, "")
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret: %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := s.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: %v", err)
	}

	if _, err := s.ValidateToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: %v", err)
	}
}

func TestOpenSessionAccessKey(t *testing.T) {
	s := NewService("secret", time.Hour, "letmein")
	if _, _, err := s.OpenSession("ada", "wrong"); !errors.Is(err, ErrInvalidAccessKey) {
		t.Errorf("wrong key: %v", err)
	}
	if _, _, err := s.OpenSession("ada", "letmein"); err != nil {
		t.Errorf("right key: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	s := NewService("secret", time.Hour, "")
	token, _, _ := s.IssueToken("ada")

	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok || session.Editor != "ada" {
			t.Errorf("session = %+v, %v", session, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"bearer", "/", "Bearer " + token, http.StatusNoContent},
		{"query token", "/?token=" + token, "", http.StatusNoContent},
		{"missing", "/", "", http.StatusUnauthorized},
		{"bad scheme", "/", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "/", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCreateSessionHandler(t *testing.T) {
	h := NewHandler(NewService("secret", time.Hour, "key"))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"created", `{"editor":"ada","accessKey":"key"}`, http.StatusCreated},
		{"bad key", `{"editor":"ada","accessKey":"nope"}`, http.StatusUnauthorized},
		{"no editor", `{"editor":"  ","accessKey":"key"}`, http.StatusBadRequest},
		{"bad body", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.CreateSession(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if tt.want != http.StatusCreated {
				return
			}
			var resp sessionResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Token == "" || resp.Session.Editor != "ada" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}
