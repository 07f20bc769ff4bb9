// Package system 提供健康检查、系统信息与生成器连通性探测接口。
package system

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mental-buddy/backend/internal/service/escalation"
	"github.com/zhouzirui/mental-buddy/backend/pkg/utils"
)

const (
	serviceName  = "Mental Buddy"
	version      = "2.1.0"
	probeTimeout = 10 * time.Second
)

// Pinger 是可探测连通性的依赖，存储与生成器都满足。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Generator 是生成器在系统接口中用到的部分。
type Generator interface {
	Pinger
	Name() string
	Available(ctx context.Context) bool
}

// Status 汇总各组件是否启用。
type Status struct {
	Generator Generator
	Store     Pinger
	StoreName string
	Voice     bool
	Resources *escalation.ResourceTable
}

type Handler struct {
	status  Status
	started time.Time
	now     func() time.Time
}

func New(status Status) *Handler {
	return &Handler{status: status, started: time.Now(), now: time.Now}
}

// RegisterRoutes 在 /api 下注册 system-info 与 test-api。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/system-info", h.handleSystemInfo)
	r.Get("/test-api", h.handleTestAPI)
}

// Health 挂在根路径 /health。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	storeStatus := "disabled"
	if h.status.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()
		if err := h.status.Store.Ping(ctx); err != nil {
			slog.Error("store health check failed", "component", "system", "error", err)
			storeStatus = "unreachable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			storeStatus = "ok"
		}
	}

	utils.RespondJSON(w, code, map[string]any{
		"status":        status,
		"service":       serviceName,
		"version":       version,
		"timestamp":     h.now().UTC().Format(time.RFC3339),
		"ai_enabled":    h.generatorAvailable(r.Context()),
		"voice_enabled": h.status.Voice,
		"store":         storeStatus,
	})
}

func (h *Handler) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	provider := ""
	if h.status.Generator != nil {
		provider = h.status.Generator.Name()
	}
	var locations []string
	if h.status.Resources != nil {
		locations = h.status.Resources.Codes()
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"service":    serviceName,
		"version":    version,
		"go_version": runtime.Version(),
		"uptime":     h.now().Sub(h.started).Round(time.Second).String(),
		"features": map[string]any{
			"ai_responses":     h.generatorAvailable(r.Context()),
			"ai_provider":      provider,
			"voice":            h.status.Voice,
			"crisis_detection": true,
			"emotion_analysis": true,
			"persistent_store": h.status.StoreName,
			"crisis_locations": locations,
		},
	})
}

// handleTestAPI 重新探测生成器，结果会刷新其可用状态。
func (h *Handler) handleTestAPI(w http.ResponseWriter, r *http.Request) {
	if h.status.Generator == nil {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"api_working": false,
			"message":     "AI generator is not configured, using template responses",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()
	if err := h.status.Generator.Ping(ctx); err != nil {
		slog.Warn("generator probe failed", "component", "system",
			"provider", h.status.Generator.Name(), "error", err)
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"api_working": false,
			"provider":    h.status.Generator.Name(),
			"message":     "AI generator unreachable, using template responses",
		})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"api_working": true,
		"provider":    h.status.Generator.Name(),
		"message":     "AI generator is working",
	})
}

func (h *Handler) generatorAvailable(ctx context.Context) bool {
	return h.status.Generator != nil && h.status.Generator.Available(ctx)
}
