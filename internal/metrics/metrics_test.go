package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordersUpdateCounters(t *testing.T) {
	m := New()
	m.RecordAnalysis("sadness", "medium")
	m.RecordAnalysis("sadness", "none")
	m.RecordReply("template")
	m.RecordGeneration("timeout", 2*time.Second)
	m.RecordSpeech("success")
	m.RecordHTTPRequest("POST", "/api/chat", 200, 30*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `mental_buddy_emotions_detected_total{emotion="sadness"} 2`)
	assert.Contains(t, body, `mental_buddy_crisis_assessments_total{tier="medium"} 1`)
	assert.Contains(t, body, `mental_buddy_replies_total{mode="template"} 1`)
	assert.Contains(t, body, `mental_buddy_generator_calls_total{outcome="timeout"} 1`)
	assert.Contains(t, body, `mental_buddy_speech_syntheses_total{outcome="success"} 1`)
	assert.Contains(t, body, `mental_buddy_http_requests_total{method="POST",path="/api/chat",status_code="200"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAnalysis("neutral", "none")
		m.RecordReply("generated")
		m.RecordGeneration("success", time.Millisecond)
		m.RecordSpeech("error")
		m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordReply("escalation")

	assert.Contains(t, scrape(t, m), `mental_buddy_replies_total{mode="escalation"} 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
