package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/complementai/internal/metrics"
	"github.com/hitoshi/complementai/internal/model"
)

const (
	// temperature は上流に送る固定の温度パラメータ。
	temperature = 0.7
	// freeSuffix はモデル名から取り除く無料枠サフィックス。
	freeSuffix = ":free"
	// defaultRetryAfter は上流が解除時刻を示さなかった場合の待機時間。
	defaultRetryAfter = 60 * time.Second

	maxMessages      = 100
	maxContentLength = 32000
)

// Request はチャットプロキシへの入力。
type Request struct {
	Messages []Message
	Model    string
}

// Reply は上流の応答。Modelは実際に応答したモデル。
type Reply struct {
	Content string
	Model   string
}

// Service はチャットプロキシのサービス層。
//
// 上流の呼び出しは最大2回で、429は再試行せずにそのまま返す。
// それ以外の失敗（データポリシー起因の404を含む）はフォールバックモデルで1回だけ再試行する。
type Service struct {
	client        Completer // 未構成の場合はnil
	defaultModel  string
	fallbackModel string
	metrics       metrics.MetricsCollector
	now           func() time.Time
}

// NewService はServiceを生成する。clientがnilの場合、Chatは常にCHAT_NOT_CONFIGUREDを返す。
func NewService(client Completer, defaultModel, fallbackModel string, mc metrics.MetricsCollector) *Service {
	if mc == nil {
		mc = noopMetrics{}
	}
	return &Service{
		client:        client,
		defaultModel:  defaultModel,
		fallbackModel: fallbackModel,
		metrics:       mc,
		now:           time.Now,
	}
}

// Enabled はチャットプロキシが構成されているかを返す。
func (s *Service) Enabled() bool {
	return s.client != nil
}

// Chat はメッセージを検証して上流に転送する。
func (s *Service) Chat(ctx context.Context, req Request) (*Reply, error) {
	if s.client == nil {
		return nil, model.NewChatNotConfiguredError()
	}
	messages, err := validateMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	primary := NormalizeModel(req.Model)
	if primary == "" {
		primary = NormalizeModel(s.defaultModel)
	}

	content, err := s.call(ctx, primary, messages)
	used := primary
	if err != nil {
		var upErr *UpstreamError
		if errors.As(err, &upErr) && upErr.IsRateLimited() {
			return nil, s.rateLimited(upErr)
		}
		if s.fallbackModel == "" || s.fallbackModel == primary {
			return nil, s.failed(err)
		}

		slog.Warn("chat upstream failed, retrying with fallback model",
			slog.String("model", primary),
			slog.String("fallback_model", s.fallbackModel),
			slog.Bool("data_policy", upErr != nil && upErr.IsDataPolicy()),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordChatFallback()

		content, err = s.call(ctx, s.fallbackModel, messages)
		used = s.fallbackModel
		if err != nil {
			var fbErr *UpstreamError
			if errors.As(err, &fbErr) && fbErr.IsRateLimited() {
				return nil, s.rateLimited(fbErr)
			}
			return nil, s.failed(err)
		}
	}

	if strings.TrimSpace(content) == "" {
		s.metrics.RecordChatUpstream(metrics.OutcomeEmpty)
		return nil, model.NewUpstreamEmptyError()
	}
	s.metrics.RecordChatUpstream(metrics.OutcomeSuccess)
	return &Reply{Content: content, Model: used}, nil
}

func (s *Service) call(ctx context.Context, modelName string, messages []Message) (string, error) {
	start := time.Now()
	content, err := s.client.Complete(ctx, modelName, messages, temperature)
	s.metrics.RecordChatLatency(time.Since(start))
	return content, err
}

func (s *Service) rateLimited(upErr *UpstreamError) error {
	s.metrics.RecordChatUpstream(metrics.OutcomeRateLimited)
	resetAt := upErr.ResetAt
	if resetAt == nil {
		t := s.now().Add(defaultRetryAfter)
		resetAt = &t
	}
	return model.NewUpstreamRateLimitedError(upErr.Message, resetAt)
}

func (s *Service) failed(err error) error {
	s.metrics.RecordChatUpstream(metrics.OutcomeFailed)
	slog.Error("chat upstream request failed", slog.String("error", err.Error()))

	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return model.NewUpstreamFailedError(upErr.Message)
	}
	return model.NewUpstreamFailedError("")
}

// NormalizeModel はモデル名の前後の空白と無料枠サフィックスを取り除く。
func NormalizeModel(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), freeSuffix)
}

func validateMessages(in []Message) ([]Message, error) {
	if len(in) == 0 {
		return nil, model.NewValidationError("messages must contain at least one message.")
	}
	if len(in) > maxMessages {
		return nil, model.NewValidationError("messages must contain at most %d messages.", maxMessages)
	}
	out := make([]Message, len(in))
	for i, m := range in {
		switch m.Role {
		case "system", "user", "assistant":
		default:
			return nil, model.NewValidationError("messages[%d].role %q is not one of system, user, assistant.", i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, model.NewValidationError("messages[%d].content is required.", i)
		}
		if len(m.Content) > maxContentLength {
			return nil, model.NewValidationError("messages[%d].content must be at most %d bytes.", i, maxContentLength)
		}
		out[i] = m
	}
	return out, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}
func (noopMetrics) RecordChatUpstream(string)                            {}
func (noopMetrics) RecordChatFallback()                                  {}
func (noopMetrics) RecordChatLatency(time.Duration)                      {}
