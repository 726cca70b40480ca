// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// チャット上流呼び出しの結果ラベル。
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = "rate_limited"
	OutcomeEmpty       = "empty"
	OutcomeFailed      = "failed"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPミドルウェアやチャットサービスから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordChatUpstream(outcome string)
	RecordChatFallback()
	RecordChatLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	chatUpstream  *prometheus.CounterVec
	chatFallbacks prometheus.Counter
	chatLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complementai_http_requests_total",
			Help: "ルート・メソッド・ステータス別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complementai_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		chatUpstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complementai_chat_upstream_requests_total",
			Help: "結果別のチャット上流API呼び出し数",
		}, []string{"outcome"}),
		chatFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "complementai_chat_fallbacks_total",
			Help: "フォールバックモデルで再試行した回数",
		}),
		chatLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "complementai_chat_upstream_latency_seconds",
			Help:    "チャット上流API呼び出しのレイテンシ（秒）",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.chatUpstream,
		c.chatFallbacks,
		c.chatLatency,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはパスパラメータを含まないルートパターンを渡す。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordChatUpstream はチャット上流呼び出しの結果を記録する。
func (c *Collector) RecordChatUpstream(outcome string) {
	c.chatUpstream.WithLabelValues(outcome).Inc()
}

// RecordChatFallback はフォールバック再試行を記録する。
func (c *Collector) RecordChatFallback() {
	c.chatFallbacks.Inc()
}

// RecordChatLatency はチャット上流呼び出しのレイテンシを記録する。
func (c *Collector) RecordChatLatency(duration time.Duration) {
	c.chatLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
