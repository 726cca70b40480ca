package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/scrum"
)

// ScrumServiceInterface はスクラム関連ハンドラーが必要とするサービスインターフェース。
// 参照はプロジェクトの承認済みメンバー、変更はプロダクトオーナーに限られる。
type ScrumServiceInterface interface {
	ListMemberProjects(ctx context.Context, userID int64) ([]*model.Project, error)

	ListMembers(ctx context.Context, userID, projectID int64) ([]*model.ProjectMember, error)
	AddMember(ctx context.Context, userID, projectID int64, in scrum.MemberInput) (*model.ProjectMember, error)
	RemoveMember(ctx context.Context, userID, projectID, memberID int64) error
	AcceptInvitation(ctx context.Context, userID, projectID int64) (*model.ProjectMember, error)

	ListBacklog(ctx context.Context, userID, projectID int64) ([]*model.BacklogItem, error)
	CreateBacklogItem(ctx context.Context, userID, projectID int64, in scrum.BacklogInput) (*model.BacklogItem, error)
	UpdateBacklogItem(ctx context.Context, userID, projectID, itemID int64, in scrum.BacklogInput) (*model.BacklogItem, error)
	DeleteBacklogItem(ctx context.Context, userID, projectID, itemID int64) error

	ListSprints(ctx context.Context, userID, projectID int64) ([]*model.Sprint, error)
	CreateSprint(ctx context.Context, userID, projectID int64, in scrum.SprintInput) (*model.Sprint, error)
	UpdateSprint(ctx context.Context, userID, projectID, sprintID int64, in scrum.SprintInput) (*model.Sprint, error)
	DeleteSprint(ctx context.Context, userID, projectID, sprintID int64) error

	ListSprintItems(ctx context.Context, userID, sprintID int64) ([]*model.SprintBacklogItem, error)
	AddSprintItem(ctx context.Context, userID, sprintID int64, in scrum.SprintItemInput) (*model.SprintBacklogItem, error)
	UpdateSprintItemStatus(ctx context.Context, userID, sprintID, itemID int64, status string) (*model.SprintBacklogItem, error)
	RemoveSprintItem(ctx context.Context, userID, sprintID, itemID int64) error

	ListParkingLot(ctx context.Context, userID, projectID int64) ([]*model.ParkingLotItem, error)
	CreateParkingLotItem(ctx context.Context, userID, projectID int64, content string) (*model.ParkingLotItem, error)
	DeleteParkingLotItem(ctx context.Context, userID, projectID, itemID int64) error

	ListMetrics(ctx context.Context, userID, sprintID int64) ([]*model.SprintMetric, error)
	RecordMetric(ctx context.Context, userID, sprintID int64, in scrum.MetricInput) (*model.SprintMetric, error)
	DeleteMetric(ctx context.Context, userID, sprintID, metricID int64) error
	Burndown(ctx context.Context, userID, sprintID int64) ([]model.BurndownPoint, error)
}

// ScrumHandler はスクラムボードのHTTPハンドラー。
type ScrumHandler struct {
	service ScrumServiceInterface
}

// NewScrumHandler はScrumHandlerを生成する。
func NewScrumHandler(service ScrumServiceInterface) *ScrumHandler {
	return &ScrumHandler{service: service}
}

type addMemberRequest struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

type backlogItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Priority    *int   `json:"priority"`
	StoryPoints *int   `json:"storyPoints"`
}

func (req backlogItemRequest) toInput() scrum.BacklogInput {
	return scrum.BacklogInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Status:      req.Status,
		Priority:    req.Priority,
		StoryPoints: req.StoryPoints,
	}
}

type parkingLotItemRequest struct {
	Content string `json:"content"`
}

// projectScope はユーザーIDとパスのprojectIdを取り出す。
func projectScope(w http.ResponseWriter, r *http.Request) (userID, projectID int64, ok bool) {
	if userID, ok = requireUserID(w, r); !ok {
		return 0, 0, false
	}
	if projectID, ok = parseIDParam(w, r, "projectId"); !ok {
		return 0, 0, false
	}
	return userID, projectID, true
}

// ListProjects は呼び出し元が承認済みメンバーであるプロジェクトを返す。
// GET /api/scrum/projects
func (h *ScrumHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projects, err := h.service.ListMemberProjects(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAll(projects, toProjectResponse))
}

// ListMembers はプロジェクトメンバーを返す。
// GET /api/scrum/projects/{projectId}/members
func (h *ScrumHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	members, err := h.service.ListMembers(r.Context(), userID, projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAll(members, toMemberResponse))
}

// AddMember はユーザーをプロジェクトに招待する。招待は承認されるまで保留状態になる。
// POST /api/scrum/projects/{projectId}/members
func (h *ScrumHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.service.AddMember(r.Context(), userID, projectID, scrum.MemberInput{
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMemberResponse(member))
}

// RemoveMember はメンバーをプロジェクトから外す。
// DELETE /api/scrum/projects/{projectId}/members/{memberId}
func (h *ScrumHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}
	memberID, ok := parseIDParam(w, r, "memberId")
	if !ok {
		return
	}

	if err := h.service.RemoveMember(r.Context(), userID, projectID, memberID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AcceptInvitation は呼び出し元自身の保留中の招待を承認する。
// POST /api/scrum/projects/{projectId}/members/accept
func (h *ScrumHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	member, err := h.service.AcceptInvitation(r.Context(), userID, projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toMemberResponse(member))
}

// ListBacklog はプロダクトバックログを返す。
// GET /api/scrum/projects/{projectId}/backlog
func (h *ScrumHandler) ListBacklog(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListBacklog(r.Context(), userID, projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAll(items, toBacklogItemResponse))
}

// CreateBacklogItem はバックログ項目を作成する。
// POST /api/scrum/projects/{projectId}/backlog
func (h *ScrumHandler) CreateBacklogItem(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	var req backlogItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.CreateBacklogItem(r.Context(), userID, projectID, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBacklogItemResponse(item))
}

// UpdateBacklogItem はバックログ項目を更新する。
// PUT /api/scrum/projects/{projectId}/backlog/{itemId}
func (h *ScrumHandler) UpdateBacklogItem(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemId")
	if !ok {
		return
	}

	var req backlogItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.UpdateBacklogItem(r.Context(), userID, projectID, itemID, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBacklogItemResponse(item))
}

// DeleteBacklogItem はバックログ項目を削除する。
// DELETE /api/scrum/projects/{projectId}/backlog/{itemId}
func (h *ScrumHandler) DeleteBacklogItem(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.service.DeleteBacklogItem(r.Context(), userID, projectID, itemID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListParkingLot はパーキングロットの項目を返す。
// GET /api/scrum/projects/{projectId}/parking-lot
func (h *ScrumHandler) ListParkingLot(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListParkingLot(r.Context(), userID, projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAll(items, toParkingLotItemResponse))
}

// CreateParkingLotItem はパーキングロットに項目を追加する。
// POST /api/scrum/projects/{projectId}/parking-lot
func (h *ScrumHandler) CreateParkingLotItem(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	var req parkingLotItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.CreateParkingLotItem(r.Context(), userID, projectID, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toParkingLotItemResponse(item))
}

// DeleteParkingLotItem はパーキングロットの項目を削除する。
// DELETE /api/scrum/projects/{projectId}/parking-lot/{itemId}
func (h *ScrumHandler) DeleteParkingLotItem(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.service.DeleteParkingLotItem(r.Context(), userID, projectID, itemID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
