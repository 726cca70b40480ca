package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/complementai/internal/model"
)

func TestUserHandler_Me(t *testing.T) {
	svc := &mockUserService{meFn: func(ctx context.Context, userID int64) (*model.User, error) {
		if userID != 1 {
			return nil, model.NewUserNotFoundError()
		}
		return testUser(), nil
	}}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.Me(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/user/me", nil), 1))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["email"] != "alice@example.com" || raw["theme"] != "system" {
		t.Errorf("response = %v", raw)
	}
	if _, ok := raw["passwordHash"]; ok {
		t.Error("password hash must not be exposed")
	}

	w = httptest.NewRecorder()
	h.Me(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/user/me", nil), 99))
	assertErrorCode(t, w, http.StatusNotFound, model.ErrCodeUserNotFound)
}

func TestUserHandler_Me_NoUser_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	NewUserHandler(&mockUserService{}).Me(w, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))

	assertErrorCode(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

func TestUserHandler_UpdateTheme(t *testing.T) {
	svc := &mockUserService{updateThemeFn: func(ctx context.Context, userID int64, theme string) (*model.User, error) {
		th, ok := model.ParseTheme(theme)
		if !ok {
			return nil, model.NewValidationError("bad theme")
		}
		u := testUser()
		u.Theme = th
		return u, nil
	}}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.UpdateTheme(w, withUserID(httptest.NewRequest(http.MethodPatch, "/api/user/theme",
		jsonBody(t, map[string]string{"theme": "dark"})), 1))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp userResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Theme != "dark" {
		t.Errorf("theme = %q, want dark", resp.Theme)
	}

	w = httptest.NewRecorder()
	h.UpdateTheme(w, withUserID(httptest.NewRequest(http.MethodPatch, "/api/user/theme",
		jsonBody(t, map[string]string{"theme": "neon"})), 1))
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeValidationFailed)
}
