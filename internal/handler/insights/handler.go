package insights

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mental-buddy/backend/internal/middleware"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/escalation"
	insightservice "github.com/zhouzirui/mental-buddy/backend/internal/service/insights"
	"github.com/zhouzirui/mental-buddy/backend/pkg/utils"
)

// Handler 服务历史记录、统计、导出与健康建议接口。
type Handler struct {
	svc       *insightservice.Service
	resources insightservice.EmergencyResources
	guard     *middleware.Auth
	now       func() time.Time
}

// New builds the handler. The emergency resources are rendered once from table.
func New(svc *insightservice.Service, table *escalation.ResourceTable, guard *middleware.Auth) *Handler {
	return &Handler{
		svc:       svc,
		resources: insightservice.BuildEmergencyResources(table),
		guard:     guard,
		now:       time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/emergency-resources", h.handleEmergencyResources)

	r.Group(func(ur chi.Router) {
		ur.Use(h.guard.OptionalAuth)
		ur.Get("/wellness-tips", h.handleWellnessTips)
		ur.Get("/history/{username}", h.handleHistory)
		ur.Get("/user-stats/{username}", h.handleUserStats)
		ur.Get("/mood-insights/{username}", h.handleMoodInsights)
		ur.Post("/save-activity", h.handleSaveActivity)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.guard.RequireAuth)
		pr.Get("/export-data/{username}", h.handleExport)
		pr.Delete("/delete-user/{username}", h.handleDeleteUser)
	})
}

// pathUser 读取路径中的用户名；已登录时只允许访问自己的数据。
func (h *Handler) pathUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		utils.RespondError(w, http.StatusBadRequest, "username is required")
		return "", false
	}
	if u, ok := middleware.UserFromContext(r.Context()); ok && u.Username != username {
		utils.RespondError(w, http.StatusForbidden, "cannot access another user's data")
		return "", false
	}
	return username, true
}

func (h *Handler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	username, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	turns, err := h.svc.History(r.Context(), username)
	if err != nil {
		h.fail(w, "history", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"history":             turns,
		"username":            username,
		"total_conversations": len(turns),
		"timestamp":           h.timestamp(),
	})
}

func (h *Handler) handleUserStats(w http.ResponseWriter, r *http.Request) {
	username, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(r.Context(), username)
	if err != nil {
		h.fail(w, "user stats", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleMoodInsights(w http.ResponseWriter, r *http.Request) {
	username, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	report, err := h.svc.MoodInsights(r.Context(), username)
	if err != nil {
		h.fail(w, "mood insights", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	username, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	export, err := h.svc.Export(r.Context(), username)
	if err != nil {
		h.fail(w, "export", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, export)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteUser(r.Context(), username)
	if err != nil {
		h.fail(w, "delete user", err)
		return
	}
	slog.Info("conversation data deleted", "component", "insights", "username", username, "turns", deleted)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"message":   "All conversation data deleted for " + username,
		"deleted":   deleted,
		"status":    "deleted",
		"timestamp": h.timestamp(),
	})
}

func (h *Handler) handleSaveActivity(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username     string `json:"username"`
		ActivityType string `json:"activity_type"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username := payload.Username
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		username = u.Username
	}
	if strings.TrimSpace(username) == "" {
		utils.RespondError(w, http.StatusBadRequest, "username is required")
		return
	}

	turn, err := h.svc.SaveActivity(r.Context(), username, payload.ActivityType)
	if errors.Is(err, insightservice.ErrActivityRequired) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.fail(w, "save activity", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Activity saved successfully",
		"activity_type": payload.ActivityType,
		"username":      turn.Username,
		"timestamp":     h.timestamp(),
	})
}

func (h *Handler) handleWellnessTips(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	name := r.URL.Query().Get("username")
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		name = u.DisplayName()
	}
	tip := insightservice.DailyTip(now, name)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"daily_tip":     tip,
		"date":          now.Format("Monday, January 2, 2006"),
		"day_of_week":   now.Weekday().String(),
		"current_focus": tip.Focus,
		"timestamp":     h.timestamp(),
	})
}

func (h *Handler) handleEmergencyResources(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.resources)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	slog.Error(op+" failed", "component", "insights", "error", err)
	utils.RespondError(w, http.StatusInternalServerError, op+" failed")
}
