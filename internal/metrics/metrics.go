// Package metrics 暴露服务的 Prometheus 指标。所有 Record 方法对 nil 接收者安全。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mental_buddy"

// Metrics wraps the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Replies             *prometheus.CounterVec
	Emotions            *prometheus.CounterVec
	CrisisAssessments   *prometheus.CounterVec
	Generations         *prometheus.CounterVec
	GenerationDuration  *prometheus.HistogramVec
	SpeechSyntheses     *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Replies produced, by response mode.",
		}, []string{"mode"}),
		Emotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emotions_detected_total",
			Help:      "Primary emotion detected per analysed message.",
		}, []string{"emotion"}),
		CrisisAssessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crisis_assessments_total",
			Help:      "Crisis tier per analysed message.",
		}, []string{"tier"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_calls_total",
			Help:      "External generator calls, by outcome.",
		}, []string{"outcome"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_call_duration_seconds",
			Help:      "Duration of external generator calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		SpeechSyntheses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_syntheses_total",
			Help:      "Text-to-speech requests, by outcome.",
		}, []string{"outcome"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		m.Replies,
		m.Emotions,
		m.CrisisAssessments,
		m.Generations,
		m.GenerationDuration,
		m.SpeechSyntheses,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordAnalysis(emotion, tier string) {
	if m == nil {
		return
	}
	m.Emotions.WithLabelValues(emotion).Inc()
	m.CrisisAssessments.WithLabelValues(tier).Inc()
}

func (m *Metrics) RecordReply(mode string) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(mode).Inc()
}

// RecordGeneration records one generator call; outcome is "success" or an
// error class such as "timeout" or "filtered".
func (m *Metrics) RecordGeneration(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(outcome).Inc()
	m.GenerationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) RecordSpeech(outcome string) {
	if m == nil {
		return
	}
	m.SpeechSyntheses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
