// Package chat はサードパーティのLLM補完APIへのプロキシを提供する。
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// maxResponseBytes は上流レスポンスとして読み込む最大サイズ。
const maxResponseBytes = 4 << 20

// Message はチャットの1メッセージ。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// UpstreamError は上流APIが2xx以外を返したことを表す。
type UpstreamError struct {
	StatusCode int
	Message    string     // error.messageの値。取れなければステータス文字列
	Body       string     // 判定用の生ボディ（上限付き）
	ResetAt    *time.Time // レート制限の解除予定時刻。上流が示した場合のみ
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited は上流のレート制限（429）かを返す。
func (e *UpstreamError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsDataPolicy は無料モデルのデータポリシー未同意による404かを返す。
func (e *UpstreamError) IsDataPolicy() bool {
	return e.StatusCode == http.StatusNotFound && strings.Contains(strings.ToLower(e.Body), "data policy")
}

// Completer はチャット補完を1回呼び出すインターフェース。
type Completer interface {
	Complete(ctx context.Context, model string, messages []Message, temperature float64) (string, error)
}

// Client はOpenAI互換のchat/completionsエンドポイントのクライアント。
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	now        func() time.Time
}

// NewClient はClientを生成する。httpClientにはタイムアウト付きのクライアントを渡す。
func NewClient(httpClient *http.Client, endpoint, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		now:        time.Now,
	}
}

// Complete は補完を1回要求し、choices[0].message.contentを返す。
// 2xx以外は*UpstreamErrorを返す。内容が空かどうかの判定は呼び出し元で行う。
func (c *Client) Complete(ctx context.Context, model string, messages []Message, temperature float64) (string, error) {
	payload, err := json.Marshal(completionRequest{Model: model, Messages: messages, Temperature: temperature})
	if err != nil {
		return "", fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "ComplementAI")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("チャットAPIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upErr := &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    gjson.GetBytes(body, "error.message").String(),
			Body:       string(body),
		}
		if upErr.Message == "" {
			upErr.Message = http.StatusText(resp.StatusCode)
		}
		if upErr.IsRateLimited() {
			upErr.ResetAt = c.resetHint(resp.Header, body)
		}
		slog.Warn("chat upstream returned error status",
			slog.String("model", model),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", upErr
	}

	// 200でもボディにerrorが入る場合がある
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		code := int(gjson.GetBytes(body, "error.code").Int())
		if code < 400 {
			code = http.StatusBadGateway
		}
		return "", &UpstreamError{StatusCode: code, Message: msg.String(), Body: string(body)}
	}

	return gjson.GetBytes(body, "choices.0.message.content").String(), nil
}

// resetHint は上流が示したレート制限の解除時刻を返す。
// Retry-After（秒）、X-RateLimit-Reset（ミリ秒のUNIX時刻）、
// ボディのerror.metadata.headers.X-RateLimit-Resetの順に参照する。
func (c *Client) resetHint(h http.Header, body []byte) *time.Time {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			t := c.now().Add(time.Duration(secs) * time.Second)
			return &t
		}
		if t, err := http.ParseTime(v); err == nil {
			return &t
		}
	}

	raw := h.Get("X-RateLimit-Reset")
	if raw == "" {
		raw = gjson.GetBytes(body, `error.metadata.headers.X-RateLimit-Reset`).String()
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
		t := time.UnixMilli(ms)
		return &t
	}
	return nil
}
