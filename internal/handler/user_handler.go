package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/complementai/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Me(ctx context.Context, userID int64) (*model.User, error)
	UpdateTheme(ctx context.Context, userID int64, theme string) (*model.User, error)
}

// UserHandler はユーザー情報のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

type updateThemeRequest struct {
	Theme string `json:"theme"`
}

// Me はログイン中のユーザー情報を返す。
// GET /api/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateTheme はUIテーマ設定を更新する。
// PATCH /api/user/theme
func (h *UserHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateTheme(r.Context(), userID, req.Theme)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
