package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/complementai/internal/auth"
	"github.com/hitoshi/complementai/internal/chat"
	"github.com/hitoshi/complementai/internal/middleware"
	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/project"
	"github.com/hitoshi/complementai/internal/scrum"
)

const testJWTSecret = "handler-test-secret-at-least-32-bytes"

// --- モック ---

type mockAuthService struct {
	registerFn       func(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	loginFn          func(ctx context.Context, email, password string) (*auth.Session, error)
	oauthEnabled     bool
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*auth.Session, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error) {
	return m.registerFn(ctx, in)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) OAuthEnabled() bool { return m.oauthEnabled }

func (m *mockAuthService) GetLoginURL(state string) string {
	return m.getLoginURLFn(state)
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*auth.Session, error) {
	return m.handleCallbackFn(ctx, code)
}

type mockUserService struct {
	meFn          func(ctx context.Context, userID int64) (*model.User, error)
	updateThemeFn func(ctx context.Context, userID int64, theme string) (*model.User, error)
}

func (m *mockUserService) Me(ctx context.Context, userID int64) (*model.User, error) {
	return m.meFn(ctx, userID)
}

func (m *mockUserService) UpdateTheme(ctx context.Context, userID int64, theme string) (*model.User, error) {
	return m.updateThemeFn(ctx, userID, theme)
}

type mockProjectService struct {
	listFn   func(ctx context.Context, userID int64) ([]*model.Project, error)
	getFn    func(ctx context.Context, userID, projectID int64) (*model.Project, error)
	createFn func(ctx context.Context, userID int64, in project.Input) (*model.Project, error)
	updateFn func(ctx context.Context, userID, projectID int64, in project.Input) (*model.Project, error)
	deleteFn func(ctx context.Context, userID, projectID int64) error
}

func (m *mockProjectService) List(ctx context.Context, userID int64) ([]*model.Project, error) {
	return m.listFn(ctx, userID)
}

func (m *mockProjectService) Get(ctx context.Context, userID, projectID int64) (*model.Project, error) {
	return m.getFn(ctx, userID, projectID)
}

func (m *mockProjectService) Create(ctx context.Context, userID int64, in project.Input) (*model.Project, error) {
	return m.createFn(ctx, userID, in)
}

func (m *mockProjectService) Update(ctx context.Context, userID, projectID int64, in project.Input) (*model.Project, error) {
	return m.updateFn(ctx, userID, projectID, in)
}

func (m *mockProjectService) Delete(ctx context.Context, userID, projectID int64) error {
	return m.deleteFn(ctx, userID, projectID)
}

// mockScrumService はテストで使うメソッドだけを関数フィールドで差し替える。
// 未設定のメソッドを呼ぶと埋め込んだnilインターフェースでpanicする。
type mockScrumService struct {
	ScrumServiceInterface

	listMembersFn      func(ctx context.Context, userID, projectID int64) ([]*model.ProjectMember, error)
	addMemberFn        func(ctx context.Context, userID, projectID int64, in scrum.MemberInput) (*model.ProjectMember, error)
	removeMemberFn     func(ctx context.Context, userID, projectID, memberID int64) error
	createBacklogFn    func(ctx context.Context, userID, projectID int64, in scrum.BacklogInput) (*model.BacklogItem, error)
	createSprintFn     func(ctx context.Context, userID, projectID int64, in scrum.SprintInput) (*model.Sprint, error)
	updateItemStatusFn func(ctx context.Context, userID, sprintID, itemID int64, status string) (*model.SprintBacklogItem, error)
	recordMetricFn     func(ctx context.Context, userID, sprintID int64, in scrum.MetricInput) (*model.SprintMetric, error)
	burndownFn         func(ctx context.Context, userID, sprintID int64) ([]model.BurndownPoint, error)
	listProjectsFn     func(ctx context.Context, userID int64) ([]*model.Project, error)
}

func (m *mockScrumService) ListMemberProjects(ctx context.Context, userID int64) ([]*model.Project, error) {
	return m.listProjectsFn(ctx, userID)
}

func (m *mockScrumService) ListMembers(ctx context.Context, userID, projectID int64) ([]*model.ProjectMember, error) {
	return m.listMembersFn(ctx, userID, projectID)
}

func (m *mockScrumService) AddMember(ctx context.Context, userID, projectID int64, in scrum.MemberInput) (*model.ProjectMember, error) {
	return m.addMemberFn(ctx, userID, projectID, in)
}

func (m *mockScrumService) RemoveMember(ctx context.Context, userID, projectID, memberID int64) error {
	return m.removeMemberFn(ctx, userID, projectID, memberID)
}

func (m *mockScrumService) CreateBacklogItem(ctx context.Context, userID, projectID int64, in scrum.BacklogInput) (*model.BacklogItem, error) {
	return m.createBacklogFn(ctx, userID, projectID, in)
}

func (m *mockScrumService) CreateSprint(ctx context.Context, userID, projectID int64, in scrum.SprintInput) (*model.Sprint, error) {
	return m.createSprintFn(ctx, userID, projectID, in)
}

func (m *mockScrumService) UpdateSprintItemStatus(ctx context.Context, userID, sprintID, itemID int64, status string) (*model.SprintBacklogItem, error) {
	return m.updateItemStatusFn(ctx, userID, sprintID, itemID, status)
}

func (m *mockScrumService) RecordMetric(ctx context.Context, userID, sprintID int64, in scrum.MetricInput) (*model.SprintMetric, error) {
	return m.recordMetricFn(ctx, userID, sprintID, in)
}

func (m *mockScrumService) Burndown(ctx context.Context, userID, sprintID int64) ([]model.BurndownPoint, error) {
	return m.burndownFn(ctx, userID, sprintID)
}

type mockChatService struct {
	chatFn func(ctx context.Context, req chat.Request) (*chat.Reply, error)
}

func (m *mockChatService) Chat(ctx context.Context, req chat.Request) (*chat.Reply, error) {
	return m.chatFn(ctx, req)
}

type mockCatalog struct {
	recommendFn func(methodology, stage string) ([]model.Template, error)
}

func (m *mockCatalog) Recommend(methodology, stage string) ([]model.Template, error) {
	return m.recommendFn(methodology, stage)
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error { return m.err }

// --- ヘルパー ---

// withUserID は認証済みのリクエストコンテキストを作る。
func withUserID(r *http.Request, userID int64) *http.Request {
	return r.WithContext(middleware.ContextWithPrincipal(r.Context(), &auth.Principal{UserID: userID}))
}

// withChiURLParams はchiのURLパラメータをリクエストに設定する。
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

// parseAPIErrorResponse はエラーレスポンスのボディを解析する。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, wantStatus, w.Body.String())
		return
	}
	if code := parseAPIErrorResponse(t, w)["code"]; code != wantCode {
		t.Errorf("code = %v, want %q", code, wantCode)
	}
}

var errDB = errors.New("connection refused")

func fixedTime() time.Time {
	return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
}

func testUser() *model.User {
	return &model.User{
		ID:           1,
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$secret",
		FirstName:    "Alice",
		LastName:     "Doe",
		Theme:        model.ThemeSystem,
		CreatedAt:    fixedTime(),
		UpdatedAt:    fixedTime(),
	}
}
