package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mental-buddy/backend/internal/middleware"
	chatservice "github.com/zhouzirui/mental-buddy/backend/internal/service/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/escalation"
	"github.com/zhouzirui/mental-buddy/backend/pkg/utils"
)

// supportiveFailure 在内部错误时仍给出求助渠道。
const supportiveFailure = "I'm having trouble responding right now, but I'm still here for you. " +
	"If you're in crisis, please call 911 or 988 right away."

// Conversation 抽象聊天编排，便于测试替换。
type Conversation interface {
	Converse(ctx context.Context, in chatservice.ConverseInput) (chatservice.Reply, error)
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chat Conversation
	now  func() time.Time
}

// New 创建聊天处理器
func New(chat Conversation) *Handler {
	return &Handler{chat: chat, now: time.Now}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

type chatRequest struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Location string `json:"location"`
}

type chatResponse struct {
	Response          string               `json:"response"`
	EmotionDetected   string               `json:"emotion_detected"`
	EmotionConfidence float64              `json:"emotion_confidence"`
	CrisisLevel       string               `json:"crisis_level"`
	Sentiment         string               `json:"sentiment"`
	SentimentScore    int                  `json:"sentiment_score"`
	Category          string               `json:"category,omitempty"`
	Technique         string               `json:"technique,omitempty"`
	Mode              string               `json:"mode"`
	ActionRequired    string               `json:"action_required,omitempty"`
	Priority          string               `json:"priority,omitempty"`
	Resources         *escalation.Resource `json:"resources,omitempty"`
	Username          string               `json:"username"`
	Timestamp         string               `json:"timestamp"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := payload.Username
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		username = u.Username
	}

	now := h.now()
	reply, err := h.chat.Converse(r.Context(), chatservice.ConverseInput{
		Text:     payload.Message,
		Username: username,
		Location: payload.Location,
		Now:      now,
	})
	switch {
	case errors.Is(err, chatservice.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	case err != nil:
		slog.Error("chat failed", "component", "chat", "error", err)
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":    "chat failed",
			"response": supportiveFailure,
		})
		return
	}

	resp := chatResponse{
		Response:          reply.Text,
		EmotionDetected:   string(reply.Analysis.Emotion.Primary),
		EmotionConfidence: reply.Analysis.Emotion.Confidence,
		CrisisLevel:       string(reply.Analysis.Crisis.Tier),
		Sentiment:         string(reply.Analysis.Sentiment.Label),
		SentimentScore:    reply.Analysis.Sentiment.Total,
		Technique:         string(reply.Technique),
		Mode:              string(reply.Mode),
		Username:          username,
		Timestamp:         now.UTC().Format(time.RFC3339),
	}
	if resp.Username == "" {
		resp.Username = "friend"
	}
	if reply.Category.Ok() {
		resp.Category = string(reply.Category.Value)
	}
	if iv := reply.Intervention; iv != nil {
		resp.ActionRequired = string(iv.Action)
		resp.Priority = string(iv.Priority)
		resp.Resources = iv.Resource
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}
