package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/maherrera/church-records/internal/routing"
)

func handleRegisterAPI(w http.ResponseWriter, r *http.Request, users userStore, sessions sessionStore) {
	const rc = routing.RouteClassAuthn

	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" || strings.TrimSpace(req.Password) == "" {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_form", "email, name and password required")
		return
	}
	if len(req.Password) < 8 {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	id, err := newUserID()
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	u, err := users.Create(r.Context(), User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, errUserExists) || isPgUniqueViolation(err) {
			routing.WriteError(w, r, rc, http.StatusConflict, "email_taken", "email already registered")
			return
		}
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	// Registration logs the user in.
	sid, err := sessions.Create(r.Context(), u.ID, time.Now().Add(sidTTLFromEnv()), r.RemoteAddr, r.UserAgent())
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "session_error", "session error")
		return
	}
	setSIDCookie(w, sid)
	routing.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
	})
}

func handleLoginAPI(w http.ResponseWriter, r *http.Request, provider identityProvider, sessions sessionStore) {
	const rc = routing.RouteClassAuthn

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_form", "email and password required")
		return
	}

	u, err := provider.AuthenticatePassword(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "identity_error", "identity error")
		return
	}

	sid, err := sessions.Create(r.Context(), u.ID, time.Now().Add(sidTTLFromEnv()), r.RemoteAddr, r.UserAgent())
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "session_error", "session error")
		return
	}
	setSIDCookie(w, sid)
	routing.WriteJSON(w, http.StatusOK, map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
	})
}

func handleLogoutAPI(w http.ResponseWriter, r *http.Request, sessions sessionStore) {
	if sid, ok := readSID(r); ok {
		_ = sessions.Revoke(r.Context(), sid)
	}
	clearSIDCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
