package projectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hitoshi/complementai/internal/model"
)

// maxResponseBytes はAPIレスポンスとして読み込む最大サイズ。
const maxResponseBytes = 4 << 20

// RemoteError はAPIサーバーが統一エラーフォーマットで返したエラー。
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *RemoteError) Error() string {
	return fmt.Sprintf("api returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// HTTPStore はAPIサーバーの/api/projectsを使うStore実装。
// すべてのリクエストにベアラートークンを付ける。
type HTTPStore struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// NewHTTPStore はHTTPStoreを生成する。baseURLはスキームとホストまで（例: https://api.example.com）。
func NewHTTPStore(httpClient *http.Client, baseURL, token string, logger *slog.Logger) *HTTPStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPStore{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		logger:     logger,
	}
}

// List は呼び出し元のプロジェクト一覧を返す。
func (s *HTTPStore) List(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := s.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

// Get はプロジェクトを1件返す。
func (s *HTTPStore) Get(ctx context.Context, id int64) (*Project, error) {
	var p Project
	if err := s.do(ctx, http.MethodGet, projectPath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save はIDが0ならPOST、それ以外はPUTで保存し、サーバーの応答でpを上書きする。
func (s *HTTPStore) Save(ctx context.Context, p *Project) error {
	body := projectBody{
		Name:        p.Name,
		Methodology: p.Methodology,
		Stage:       p.Stage,
		Domain:      p.Domain,
		Templates:   p.Templates,
	}
	if body.Templates == nil {
		body.Templates = []model.Template{}
	}

	method, path := http.MethodPost, "/api/projects"
	if p.ID != 0 {
		method, path = http.MethodPut, projectPath(p.ID)
	}

	var saved Project
	if err := s.do(ctx, method, path, body, &saved); err != nil {
		return err
	}
	*p = saved
	return nil
}

// Delete はプロジェクトを削除する。
func (s *HTTPStore) Delete(ctx context.Context, id int64) error {
	return s.do(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

// projectBody はサーバーが受け付けるフィールドだけを送るためのリクエストボディ。
type projectBody struct {
	Name        string           `json:"name"`
	Methodology string           `json:"methodology"`
	Stage       string           `json:"stage"`
	Domain      string           `json:"domain"`
	Templates   []model.Template `json:"templates"`
}

func projectPath(id int64) string {
	return "/api/projects/" + url.PathEscape(strconv.FormatInt(id, 10))
}

// do はリクエストを送り、2xxならoutにデコードする。
// 404のPROJECT_NOT_FOUNDはErrNotFoundに、それ以外のエラー応答はRemoteErrorに変換する。
func (s *HTTPStore) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("project api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to call project api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := gjson.GetBytes(body, "code").String()
		if resp.StatusCode == http.StatusNotFound && code == model.ErrCodeProjectNotFound {
			return ErrNotFound
		}
		s.logger.Warn("project api returned error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", code),
		)
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Code:       code,
			Message:    gjson.GetBytes(body, "message").String(),
		}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Store = (*HTTPStore)(nil)
