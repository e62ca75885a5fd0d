// Package metrics — Prometheus-метрики wishlist-service.
// Все методы безопасны для nil-получателя: сервис работает и без метрик.
package metrics

import (
	"strconv"
	"time"

	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wishlist"

// Metrics — набор счётчиков HTTP и доменных операций.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	reaction *prometheus.CounterVec
	comments prometheus.Counter
	sessions *prometheus.CounterVec
}

// New регистрирует метрики в reg. При reg == nil возвращает пустой набор (no-op).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		reaction: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_total",
			Help:      "Reaction attempts by outcome (created, incremented, unchanged).",
		}, []string{"outcome"}),
		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_total",
			Help:      "Comments appended to products.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_failures_total",
			Help:      "Rejected session credentials by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.requests, m.duration, m.reaction, m.comments, m.sessions)

	return m
}

// ObserveHTTP учитывает завершённый HTTP-запрос.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil || m.requests == nil {
		return
	}

	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// IncReaction учитывает исход AddReaction.
func (m *Metrics) IncReaction(o models.ReactionOutcome) {
	if m == nil || m.reaction == nil {
		return
	}

	m.reaction.WithLabelValues(o.String()).Inc()
}

// IncComment учитывает добавленный комментарий.
func (m *Metrics) IncComment() {
	if m == nil || m.comments == nil {
		return
	}

	m.comments.Inc()
}

// IncSessionFailure учитывает отклонённую сессию.
func (m *Metrics) IncSessionFailure(reason string) {
	if m == nil || m.sessions == nil {
		return
	}

	m.sessions.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}

	return v
}
