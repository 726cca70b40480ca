package handler

import (
	"net/http"

	"github.com/hitoshi/complementai/internal/scrum"
)

type sprintRequest struct {
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status"`
}

func (req sprintRequest) toInput() scrum.SprintInput {
	return scrum.SprintInput{
		Name:      req.Name,
		Goal:      req.Goal,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    req.Status,
	}
}

type sprintItemRequest struct {
	BacklogItemID int64  `json:"backlogItemId"`
	Status        string `json:"status"`
}

type sprintItemStatusRequest struct {
	Status string `json:"status"`
}

type metricRequest struct {
	Date            string `json:"date"`
	RemainingPoints int    `json:"remainingPoints"`
	CompletedPoints int    `json:"completedPoints"`
}

// sprintScope はユーザーIDとパスのsprintIdを取り出す。
// プロジェクトの解決と権限チェックはサービス層がスプリントの所属から行う。
func sprintScope(w http.ResponseWriter, r *http.Request) (userID, sprintID int64, ok bool) {
	if userID, ok = requireUserID(w, r); !ok {
		return 0, 0, false
	}
	if sprintID, ok = parseIDParam(w, r, "sprintId"); !ok {
		return 0, 0, false
	}
	return userID, sprintID, true
}

// ListSprints はスプリント一覧を返す。
// GET /api/scrum/projects/{projectId}/sprints
func (h *ScrumHandler) ListSprints(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	sprints, err := h.service.ListSprints(r.Context(), userID, projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAll(sprints, toSprintResponse))
}

// CreateSprint はスプリントを作成する。
// POST /api/scrum/projects/{projectId}/sprints
func (h *ScrumHandler) CreateSprint(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	var req sprintRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sprint, err := h.service.CreateSprint(r.Context(), userID, projectID, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSprintResponse(sprint))
}

// UpdateSprint はスプリントを更新する。
// PUT /api/scrum/projects/{projectId}/sprints/{sprintId}
func (h *ScrumHandler) UpdateSprint(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}
	sprintID, ok := parseIDParam(w, r, "sprintId")
	if !ok {
		return
	}

	var req sprintRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sprint, err := h.service.UpdateSprint(r.Context(), userID, projectID, sprintID, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSprintResponse(sprint))
}

// DeleteSprint はスプリントを削除する。
// DELETE /api/scrum/projects/{projectId}/sprints/{sprintId}
func (h *ScrumHandler) DeleteSprint(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := projectScope(w, r)
	if !ok {
		return
	}
	sprintID, ok := parseIDParam(w, r, "sprintId")
	if !ok {
		return
	}

	if err := h.service.DeleteSprint(r.Context(), userID, projectID, sprintID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSprintItems はスプリントバックログを返す。
// GET /api/scrum/sprints/{sprintId}/items
func (h *ScrumHandler) ListSprintItems(w http.ResponseWriter, r *http.Request) {
	userID, sprintID, ok := sprintScope(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListSprintItems(r.Context(), userID, sprintID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAll(items, toSprintItemResponse))
}

// AddSprintItem はバックログ項目をスプリントに追加する。
// POST /api/scrum/sprints/{sprintId}/items
func (h *ScrumHandler) AddSprintItem(w http.ResponseWriter, r *http.Request) {
	userID, sprintID, ok := sprintScope(w, r)
	if !ok {
		return
	}

	var req sprintItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.AddSprintItem(r.Context(), userID, sprintID, scrum.SprintItemInput{
		BacklogItemID: req.BacklogItemID,
		Status:        req.Status,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSprintItemResponse(item))
}

// UpdateSprintItemStatus はスプリント内の項目の状態を変更する。
// PATCH /api/scrum/sprints/{sprintId}/items/{itemId}
func (h *ScrumHandler) UpdateSprintItemStatus(w http.ResponseWriter, r *http.Request) {
	userID, sprintID, ok := sprintScope(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemId")
	if !ok {
		return
	}

	var req sprintItemStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.UpdateSprintItemStatus(r.Context(), userID, sprintID, itemID, req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSprintItemResponse(item))
}

// RemoveSprintItem はスプリントから項目を外す。
// DELETE /api/scrum/sprints/{sprintId}/items/{itemId}
func (h *ScrumHandler) RemoveSprintItem(w http.ResponseWriter, r *http.Request) {
	userID, sprintID, ok := sprintScope(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.service.RemoveSprintItem(r.Context(), userID, sprintID, itemID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMetrics はスプリントのメトリクス履歴を返す。
// GET /api/scrum/sprints/{sprintId}/metrics
func (h *ScrumHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	userID, sprintID, ok := sprintScope(w, r)
	if !ok {
		return
	}

	metrics, err := h.service.ListMetrics(r.Context(), userID, sprintID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAll(metrics, toMetricResponse))
}

// RecordMetric はメトリクスを1件記録する。
// POST /api/scrum/sprints/{sprintId}/metrics
func (h *ScrumHandler) RecordMetric(w http.ResponseWriter, r *http.Request) {
	userID, sprintID, ok := sprintScope(w, r)
	if !ok {
		return
	}

	var req metricRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	metric, err := h.service.RecordMetric(r.Context(), userID, sprintID, scrum.MetricInput{
		Date:            req.Date,
		RemainingPoints: req.RemainingPoints,
		CompletedPoints: req.CompletedPoints,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMetricResponse(metric))
}

// DeleteMetric はメトリクスを削除する。
// DELETE /api/scrum/sprints/{sprintId}/metrics/{metricId}
func (h *ScrumHandler) DeleteMetric(w http.ResponseWriter, r *http.Request) {
	userID, sprintID, ok := sprintScope(w, r)
	if !ok {
		return
	}
	metricID, ok := parseIDParam(w, r, "metricId")
	if !ok {
		return
	}

	if err := h.service.DeleteMetric(r.Context(), userID, sprintID, metricID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Burndown はスプリントのバーンダウンを日ごとに返す。
// GET /api/scrum/sprints/{sprintId}/burndown
func (h *ScrumHandler) Burndown(w http.ResponseWriter, r *http.Request) {
	userID, sprintID, ok := sprintScope(w, r)
	if !ok {
		return
	}

	points, err := h.service.Burndown(r.Context(), userID, sprintID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAll(points, toBurndownPointResponse))
}
