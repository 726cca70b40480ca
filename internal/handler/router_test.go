package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/complementai/internal/auth"
	"github.com/hitoshi/complementai/internal/catalog"
	"github.com/hitoshi/complementai/internal/chat"
	"github.com/hitoshi/complementai/internal/metrics"
	"github.com/hitoshi/complementai/internal/middleware"
	"github.com/hitoshi/complementai/internal/model"
)

// testRouter はルーターと、トークン発行に使うTokenManagerを保持する。
type testRouter struct {
	handler http.Handler
	tokens  *auth.TokenManager
	reg     *prometheus.Registry
}

func (tr *testRouter) tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, _, err := tr.tokens.Issue(userID, "user@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func (tr *testRouter) do(t *testing.T, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	return w
}

// newTestRouter は実際のTokenManager・カタログ・メトリクスで構成したルーターを返す。
// チャットは上流サーバーのURLが空の場合は未設定扱いになる。
func newTestRouter(t *testing.T, deps RouterDeps, chatUpstream string) *testRouter {
	t.Helper()

	tokens := auth.NewTokenManager(testJWTSecret, time.Hour)
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}

	var completer chat.Completer
	if chatUpstream != "" {
		completer = chat.NewClient(&http.Client{Timeout: 5 * time.Second}, chatUpstream, "test-key")
	}

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	deps.TokenVerifier = tokens
	deps.CORSAllowedOrigins = []string{"http://localhost:5173"}
	deps.RateLimiter = rl
	deps.Metrics = collector
	deps.MetricsHandler = metrics.Handler(reg)
	deps.Catalog = cat
	if deps.ChatService == nil {
		deps.ChatService = chat.NewService(completer, "meta-llama/llama-3.3-70b-instruct", "openrouter/auto", collector)
	}
	if deps.HealthChecker == nil {
		deps.HealthChecker = &mockHealthChecker{}
	}
	if deps.AuthService == nil {
		deps.AuthService = &mockAuthService{}
	}
	if deps.UserService == nil {
		deps.UserService = &mockUserService{meFn: func(ctx context.Context, userID int64) (*model.User, error) {
			u := testUser()
			u.ID = userID
			return u, nil
		}}
	}
	if deps.ProjectService == nil {
		deps.ProjectService = &mockProjectService{}
	}
	if deps.ScrumService == nil {
		deps.ScrumService = &mockScrumService{}
	}

	return &testRouter{handler: NewRouter(&deps), tokens: tokens, reg: reg}
}

func TestRouter_ProtectedEndpoints_RequireAuth(t *testing.T) {
	tr := newTestRouter(t, RouterDeps{}, "")

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/user/me"},
		{http.MethodPatch, "/api/user/theme"},
		{http.MethodGet, "/api/catalog/templates"},
		{http.MethodGet, "/api/projects"},
		{http.MethodPost, "/api/projects"},
		{http.MethodGet, "/api/projects/1"},
		{http.MethodPut, "/api/projects/1"},
		{http.MethodDelete, "/api/projects/1"},
		{http.MethodGet, "/api/scrum/projects"},
		{http.MethodGet, "/api/scrum/projects/1/members"},
		{http.MethodPost, "/api/scrum/projects/1/members"},
		{http.MethodPost, "/api/scrum/projects/1/members/accept"},
		{http.MethodDelete, "/api/scrum/projects/1/members/2"},
		{http.MethodGet, "/api/scrum/projects/1/backlog"},
		{http.MethodPut, "/api/scrum/projects/1/backlog/2"},
		{http.MethodGet, "/api/scrum/projects/1/sprints"},
		{http.MethodDelete, "/api/scrum/projects/1/sprints/2"},
		{http.MethodGet, "/api/scrum/projects/1/parking-lot"},
		{http.MethodGet, "/api/scrum/sprints/1/items"},
		{http.MethodPatch, "/api/scrum/sprints/1/items/2"},
		{http.MethodGet, "/api/scrum/sprints/1/metrics"},
		{http.MethodDelete, "/api/scrum/sprints/1/metrics/2"},
		{http.MethodGet, "/api/scrum/sprints/1/burndown"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := tr.do(t, ep.method, ep.path, "", nil)
			assertErrorCode(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
		})
	}
}

func TestRouter_AuthenticatedRequest(t *testing.T) {
	tr := newTestRouter(t, RouterDeps{}, "")

	w := tr.do(t, http.MethodGet, "/api/user/me", tr.tokenFor(t, 42), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	var resp userResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.ID != 42 {
		t.Errorf("id = %d, want 42", resp.ID)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("X-Request-ID should be set")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should be set")
	}
}

func TestRouter_PathParamsReachHandlers(t *testing.T) {
	var gotSprint int64
	deps := RouterDeps{ScrumService: &mockScrumService{
		burndownFn: func(ctx context.Context, userID, sprintID int64) ([]model.BurndownPoint, error) {
			gotSprint = sprintID
			return nil, nil
		},
	}}
	tr := newTestRouter(t, deps, "")

	w := tr.do(t, http.MethodGet, "/api/scrum/sprints/77/burndown", tr.tokenFor(t, 1), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotSprint != 77 {
		t.Errorf("sprintID = %d, want 77", gotSprint)
	}

	w = tr.do(t, http.MethodGet, "/api/scrum/sprints/zero/burndown", tr.tokenFor(t, 1), nil)
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidID)
}

func TestRouter_UnknownRouteAndMethod(t *testing.T) {
	tr := newTestRouter(t, RouterDeps{}, "")

	w := tr.do(t, http.MethodGet, "/api/nope", "", nil)
	assertErrorCode(t, w, http.StatusNotFound, model.ErrCodeRouteNotFound)

	w = tr.do(t, http.MethodPut, "/api/register", "", nil)
	assertErrorCode(t, w, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed)
}

func TestRouter_GoogleRoutesOnlyWhenEnabled(t *testing.T) {
	disabled := newTestRouter(t, RouterDeps{}, "")
	if w := disabled.do(t, http.MethodGet, "/api/auth/google/login", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("disabled: status = %d, want 404", w.Code)
	}

	enabled := newTestRouter(t, RouterDeps{AuthService: &mockAuthService{
		oauthEnabled:  true,
		getLoginURLFn: func(state string) string { return "https://accounts.google.com/?state=" + state },
	}}, "")
	if w := enabled.do(t, http.MethodGet, "/api/auth/google/login", "", nil); w.Code != http.StatusTemporaryRedirect {
		t.Errorf("enabled: status = %d, want 307", w.Code)
	}
}

func TestRouter_CatalogUsesEmbeddedEntries(t *testing.T) {
	tr := newTestRouter(t, RouterDeps{}, "")
	token := tr.tokenFor(t, 1)

	w := tr.do(t, http.MethodGet, "/api/catalog/templates?methodology=agil&stage=idea", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var templates []model.Template
	if err := json.NewDecoder(w.Body).Decode(&templates); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(templates) == 0 {
		t.Error("expected at least one recommended template")
	}

	w = tr.do(t, http.MethodGet, "/api/catalog/templates?stage=launch", token, nil)
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeValidationFailed)
}

func TestRouter_ChatWithoutAuth(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Define the scope first."}}]}`))
	}))
	defer upstream.Close()

	tr := newTestRouter(t, RouterDeps{}, upstream.URL)

	w := tr.do(t, http.MethodPost, "/api/chat", "", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	var resp chatResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Content != "Define the scope first." {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestRouter_ChatUpstreamRateLimited(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit exceeded: free-models-per-day"}}`))
	}))
	defer upstream.Close()

	tr := newTestRouter(t, RouterDeps{}, upstream.URL)

	w := tr.do(t, http.MethodPost, "/api/chat", "", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After should be set")
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeUpstreamRateLimited {
		t.Errorf("code = %v", body["code"])
	}
	if body["message"] != "Rate limit exceeded: free-models-per-day" {
		t.Errorf("message = %v", body["message"])
	}
	if _, ok := body["reset_at"]; !ok {
		t.Error("reset_at should be present")
	}
}

func TestRouter_ChatNotConfigured(t *testing.T) {
	tr := newTestRouter(t, RouterDeps{}, "")

	w := tr.do(t, http.MethodPost, "/api/chat", "", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	assertErrorCode(t, w, http.StatusServiceUnavailable, model.ErrCodeChatNotConfigured)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	tr := newTestRouter(t, RouterDeps{}, "")

	if w := tr.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", w.Code)
	}

	tr.do(t, http.MethodGet, "/api/user/me", tr.tokenFor(t, 1), nil)

	w := tr.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `complementai_http_requests_total{method="GET",route="/api/user/me",status_code="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", w.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	tr := newTestRouter(t, RouterDeps{}, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
