package voice

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis"
	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/voice"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/speech"
	"github.com/zhouzirui/mental-buddy/backend/pkg/utils"
)

// Handler 语音合成与音色管理的HTTP处理器
type Handler struct {
	speech *speech.Service
	engine *analysis.Engine
}

func New(svc *speech.Service, engine *analysis.Engine) *Handler {
	if engine == nil {
		engine = analysis.NewEngine()
	}
	return &Handler{speech: svc, engine: engine}
}

// RegisterRoutes 注册 /voice 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/voice", func(vr chi.Router) {
		vr.Post("/generate", h.handleGenerate)
		vr.Get("/voices", h.handleVoices)
		vr.Post("/change-voice", h.handleChangeVoice)
		vr.Get("/test", h.handleTest)
	})
}

type generateRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
	Style   string `json:"voice_style"`
	Emotion string `json:"emotion"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload generateRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	label := emotion.Label(strings.ToLower(strings.TrimSpace(payload.Emotion)))
	if label == "" {
		label = h.engine.Analyze(payload.Text).Emotion.Primary
	}

	res, err := h.speech.Generate(r.Context(), speech.GenerateRequest{
		Text:    payload.Text,
		VoiceID: payload.VoiceID,
		Style:   payload.Style,
		Emotion: label,
	})
	switch {
	case errors.Is(err, speech.ErrEmptyText):
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	case errors.Is(err, voice.ErrUnknownVoice):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, speech.ErrUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "voice service unavailable")
		return
	case err != nil:
		slog.Error("voice generation failed", "component", "voice", "error", err)
		utils.RespondError(w, http.StatusBadGateway, "voice generation failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"audio_data":  base64.StdEncoding.EncodeToString(res.Audio),
		"format":      res.Format,
		"voice":       res.Voice,
		"voice_style": res.Style,
		"text_length": len([]rune(res.Text)),
		"duration_ms": res.Duration.Milliseconds(),
	})
}

func (h *Handler) handleVoices(w http.ResponseWriter, _ *http.Request) {
	store := h.speech.Voices()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"voices":        store.List(),
		"current_voice": store.Current(),
		"available":     h.speech.Available(),
	})
}

func (h *Handler) handleChangeVoice(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Voice string `json:"voice_name"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := h.speech.Voices().SetCurrent(payload.Voice)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "voice "+payload.Voice+" not available")
		return
	}
	slog.Info("voice changed", "component", "voice", "voice", v.ID)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Voice changed to " + v.ID,
		"current_voice": v,
	})
}

func (h *Handler) handleTest(w http.ResponseWriter, r *http.Request) {
	if !h.speech.Available() {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"voice_working": false,
			"message":       "Voice service is not configured",
		})
		return
	}
	res, err := h.speech.Test(r.Context())
	if err != nil {
		slog.Warn("voice test failed", "component", "voice", "error", err)
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"voice_working": false,
			"message":       "Voice service test failed",
		})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"voice_working": true,
		"message":       "Voice service is working",
		"current_voice": res.Voice,
	})
}
