package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/project"
)

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
// すべての操作は呼び出し元ユーザーが所有するプロジェクトに限定される。
type ProjectServiceInterface interface {
	List(ctx context.Context, userID int64) ([]*model.Project, error)
	Get(ctx context.Context, userID, projectID int64) (*model.Project, error)
	Create(ctx context.Context, userID int64, in project.Input) (*model.Project, error)
	Update(ctx context.Context, userID, projectID int64, in project.Input) (*model.Project, error)
	Delete(ctx context.Context, userID, projectID int64) error
}

// ProjectHandler はプロジェクト管理のHTTPハンドラー。
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// projectRequest は作成・更新で共通のリクエストボディ。
// templatesはオブジェクトの配列でなければデコードの時点で失敗する。
type projectRequest struct {
	Name        string           `json:"name"`
	Methodology string           `json:"methodology"`
	Stage       string           `json:"stage"`
	Domain      string           `json:"domain"`
	Templates   []model.Template `json:"templates"`
}

func (req projectRequest) toInput() project.Input {
	return project.Input{
		Name:        req.Name,
		Methodology: req.Methodology,
		Stage:       req.Stage,
		Domain:      req.Domain,
		Templates:   req.Templates,
	}
}

// List はユーザーのプロジェクト一覧を返す。
// GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projects, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAll(projects, toProjectResponse))
}

// Get はプロジェクトを1件返す。
// GET /api/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), userID, projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// Create はプロジェクトを作成する。作成者はプロダクトオーナーとしてメンバー登録される。
// POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

// Update はプロジェクトを更新する。
// PUT /api/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), userID, projectID, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// Delete はプロジェクトを削除する。
// DELETE /api/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, projectID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
