// Package metrics 提供 Prometheus 监控指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shiftsync_http_requests_total",
		Help: "HTTP 请求总数",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shiftsync_http_request_duration_seconds",
		Help:    "HTTP 请求延迟",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"method", "path"})

	ScheduleGenerationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shiftsync_schedule_generation_total",
		Help: "排班生成次数",
	}, []string{"restaurant_id", "status"})

	ScheduleGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shiftsync_schedule_generation_duration_seconds",
		Help:    "排班生成延迟",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
	}, []string{"restaurant_id"})

	ConstraintViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shiftsync_constraint_violations_total",
		Help: "约束违反次数",
	}, []string{"tag"})

	OpenPeriods = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shiftsync_open_periods",
		Help: "当前打开的排班周期数",
	})

	AttachedSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shiftsync_attached_sessions",
		Help: "每个周期当前连接的会话数",
	}, []string{"period_id"})

	SlowConsumerDropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shiftsync_slow_consumer_drops_total",
		Help: "因积压超限被断开的会话数",
	}, []string{"period_id"})

	PersistFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shiftsync_persist_failures_total",
		Help: "持久化写入失败次数",
	}, []string{"period_id"})

	DBConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shiftsync_db_connections",
		Help: "数据库连接数",
	}, []string{"state"})
)

// Handler 返回 Prometheus 抓取端点的 HTTP 处理器。
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest 记录一次 HTTP 请求的指标。
func RecordRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordScheduleGeneration 记录一次排班生成的指标。
func RecordScheduleGeneration(restaurantID string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	ScheduleGenerationTotal.WithLabelValues(restaurantID, status).Inc()
	ScheduleGenerationDuration.WithLabelValues(restaurantID).Observe(duration.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
