package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mental-buddy/backend/internal/metrics"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/voice"
)

var (
	ErrEmptyText   = errors.New("text is required")
	ErrUnavailable = errors.New("voice service unavailable")
)

const (
	defaultTimeout = 30 * time.Second
	testPhrase     = "Hello, I'm here to listen whenever you need me."
)

// Service 组合音色目录、语气映射与合成客户端。
type Service struct {
	synth   Synthesizer
	voices  voice.Store
	timeout time.Duration
	metrics *metrics.Metrics

	// 全局语速、音量倍率，叠加在语气映射之上
	speed  float32
	volume float32
}

type Option func(*Service)

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRatios scales every style's speed and volume. Non-positive values are ignored.
func WithRatios(speed, volume float32) Option {
	return func(s *Service) {
		if speed > 0 {
			s.speed = speed
		}
		if volume > 0 {
			s.volume = volume
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the service. synth may be nil, in which case only the
// voice catalogue is served.
func NewService(synth Synthesizer, voices voice.Store, opts ...Option) *Service {
	if voices == nil {
		voices = voice.NewMemoryStore(voice.Seed())
	}
	s := &Service{synth: synth, voices: voices, timeout: defaultTimeout, speed: 1, volume: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether synthesis is configured.
func (s *Service) Available() bool {
	return s.synth != nil
}

func (s *Service) Voices() voice.Store {
	return s.voices
}

// GenerateRequest 是一次朗读请求。Style 为空时由 Emotion 推导。
type GenerateRequest struct {
	Text    string
	VoiceID string
	Style   string
	Emotion emotion.Label
}

type Result struct {
	Audio    []byte
	Format   string
	Voice    voice.Voice
	Style    Style
	Text     string
	Duration time.Duration
}

// Generate synthesizes req.Text with the requested or current voice.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, ErrEmptyText
	}
	if s.synth == nil {
		return Result{}, ErrUnavailable
	}

	v := s.voices.Current()
	if id := strings.TrimSpace(req.VoiceID); id != "" {
		found, ok := s.voices.FindByID(strings.ToLower(id))
		if !ok {
			return Result{}, fmt.Errorf("%w: %s", voice.ErrUnknownVoice, id)
		}
		v = found
	}

	style, ok := ParseStyle(req.Style)
	if !ok {
		style = StyleFor(req.Emotion)
	}
	text := PrepareText(req.Text)
	prosody := ProsodyFor(style)
	prosody.Speed *= s.speed
	prosody.Volume *= s.volume

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	audio, err := s.synth.Synthesize(ctx, Request{
		Text:    text,
		Speaker: v.Speaker,
		Prosody: prosody,
		Emotive: v.Emotive,
	})
	if err != nil {
		s.metrics.RecordSpeech("error")
		return Result{}, fmt.Errorf("synthesize: %w", err)
	}
	s.metrics.RecordSpeech("success")

	return Result{
		Audio:    audio.Data,
		Format:   audio.Format,
		Voice:    v,
		Style:    style,
		Text:     text,
		Duration: audio.Duration,
	}, nil
}

// Test 合成一句固定短语以检查语音服务连通性。
func (s *Service) Test(ctx context.Context) (Result, error) {
	return s.Generate(ctx, GenerateRequest{Text: testPhrase, Style: string(StyleEmpathetic)})
}
