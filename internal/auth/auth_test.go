package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const secret = "test-secret"

func newService(t *testing.T, password string) *Service {
	t.Helper()
	if password == "" {
		return NewService("", secret)
	}
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	return NewService(hash, secret)
}

func TestLogin(t *testing.T) {
	s := newService(t, "hunter22")

	if _, err := s.Login("wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong) error = %v, want ErrInvalidCredentials", err)
	}
	res, err := s.Login("hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	sub, err := s.ValidateToken(res.Token)
	if err != nil || sub != Subject {
		t.Errorf("ValidateToken = %q, %v", sub, err)
	}

	other := NewService("", "another-secret")
	if _, err := other.ValidateToken(res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token from another secret: error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newService(t, "hunter22")
	res, err := s.Login("hunter22")
	if err != nil {
		t.Fatal(err)
	}

	var gotSubject string
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"no token", "/api/elements", "", http.StatusUnauthorized},
		{"bearer", "/api/elements", "Bearer " + res.Token, http.StatusNoContent},
		{"query token", "/ws?token=" + res.Token, "", http.StatusNoContent},
		{"bad scheme", "/api/elements", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/api/elements", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSubject = ""
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && gotSubject != Subject {
				t.Errorf("subject = %q, want %q", gotSubject, Subject)
			}
		})
	}
}

func TestAuthDisabled(t *testing.T) {
	s := newService(t, "")
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elements", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestLoginHandler(t *testing.T) {
	h := NewHandler(newService(t, "hunter22"))
	tests := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"password":"hunter22"}`, http.StatusOK},
		{"wrong", `{"password":"nope"}`, http.StatusUnauthorized},
		{"missing", `{}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStatusHandler(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"enabled", "hunter22", true},
		{"disabled", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(newService(t, tt.password))
			rec := httptest.NewRecorder()
			h.Status(rec, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
			var got statusResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.AuthRequired != tt.want {
				t.Errorf("AuthRequired = %v, want %v", got.AuthRequired, tt.want)
			}
		})
	}
}
