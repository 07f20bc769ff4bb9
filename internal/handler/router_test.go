package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mental-buddy/backend/internal/handler/system"
	"github.com/zhouzirui/mental-buddy/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/mental-buddy/backend/internal/middleware"
	authService "github.com/zhouzirui/mental-buddy/backend/internal/service/auth"
	chatService "github.com/zhouzirui/mental-buddy/backend/internal/service/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/escalation"
	insightService "github.com/zhouzirui/mental-buddy/backend/internal/service/insights"
	"github.com/zhouzirui/mental-buddy/backend/internal/store"
)

func newTestRouter(t *testing.T, rpm int) http.Handler {
	t.Helper()
	st := store.NewMemoryStore()
	table := escalation.DefaultResourceTable()
	limiter := middlewarePkg.NewRateLimiter(rpm)
	t.Cleanup(limiter.Stop)

	return NewRouter(Dependencies{
		Chat:      chatService.NewService(nil, escalation.NewPolicy(table), nil, chatService.WithConversationLog(st)),
		Auth:      authService.NewService(st, []byte("router-test"), 0),
		Insights:  insightService.NewService(st),
		Resources: table,
		Metrics:   metrics.New(),
		Limiter:   limiter,
		System:    system.Status{Store: st, StoreName: "memory", Resources: table},

		AllowedOrigins: []string{"*"},
	})
}

func TestRouterServesCoreRoutes(t *testing.T) {
	r := newTestRouter(t, 60)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/emergency-resources", "", http.StatusOK},
		{http.MethodGet, "/api/wellness-tips", "", http.StatusOK},
		{http.MethodGet, "/api/system-info", "", http.StatusOK},
		{http.MethodPost, "/api/chat", `{"message":"hello","username":"sam"}`, http.StatusOK},
		{http.MethodGet, "/api/history/sam", "", http.StatusOK},
		{http.MethodPost, "/api/auth/verify", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/export-data/sam", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/voice/voices", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouterRateLimitsChat(t *testing.T) {
	r := newTestRouter(t, 1)

	codes := make([]int, 0, 2)
	for _i := 0; _i < 2; _i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message":"hi"}`))
		req.RemoteAddr = "203.0.113.9:4000"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
