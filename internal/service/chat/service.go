package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis"
	"github.com/zhouzirui/mental-buddy/backend/internal/metrics"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/lookup"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/ai"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/escalation"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/response"
	"github.com/zhouzirui/mental-buddy/backend/internal/store"
)

var ErrEmptyMessage = errors.New("message is required")

const (
	// ConverseHistoryLimit 是 Converse 读取的历史轮数。
	ConverseHistoryLimit = 10
	DefaultTimeout       = 15 * time.Second

	followUpProbability = 0.7
	copingProbability   = 0.3
	defaultUsername     = "friend"
)

// Mode 说明回复的来源。
type Mode string

const (
	ModeEscalation Mode = "escalation"
	ModeGenerated  Mode = "generated"
	ModeTemplate   Mode = "template"
)

// Generator 是可选的外部回复生成器。
type Generator interface {
	Available(ctx context.Context) bool
	Generate(ctx context.Context, p ai.Prompt) (string, error)
}

// Input 是一次回复所需的全部输入。Now 为零值时取当前时间。
type Input struct {
	Text     string
	Username string
	Location string
	History  []chat.Turn
	Now      time.Time
}

// Reply 是回复文本及其元数据。
type Reply struct {
	Text     string
	Mode     Mode
	Analysis analysis.Result

	// 以下字段仅在对应路径上填充
	Intervention   *escalation.Intervention
	Category       lookup.Resolution[response.Category]
	Technique      response.Technique
	SafetyOverride bool
	GeneratorErr   error
}

// Service 编排分析、危机升级、生成与模板回退。
type Service struct {
	engine       *analysis.Engine
	policy       *escalation.Policy
	selector     *response.Selector
	generator    Generator
	log          store.ConversationLog
	metrics      *metrics.Metrics
	timeout      time.Duration
	historyLimit int
	now          func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithGenerator enables the external generator path.
func WithGenerator(g Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithConversationLog enables Converse persistence.
func WithConversationLog(l store.ConversationLog) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout bounds each generator call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHistoryLimit bounds the turns included in the generator prompt.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithClock overrides the time source used when Input.Now is zero.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the orchestrator. A nil policy or selector falls back to
// the built-in resource table and template bank.
func NewService(engine *analysis.Engine, policy *escalation.Policy, selector *response.Selector, opts ...Option) *Service {
	if engine == nil {
		engine = analysis.NewEngine()
	}
	if policy == nil {
		policy = escalation.NewPolicy(nil)
	}
	if selector == nil {
		selector = response.NewSelector(nil)
	}
	s := &Service{
		engine:       engine,
		policy:       policy,
		selector:     selector,
		timeout:      DefaultTimeout,
		historyLimit: ai.DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Selector exposes the anti-repetition selector so callers can reset it.
func (s *Service) Selector() *response.Selector {
	return s.selector
}

// Respond 分析消息并生成回复，不读写对话日志。
func (s *Service) Respond(ctx context.Context, in Input) Reply {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = defaultUsername
	}
	now := in.Now
	if now.IsZero() {
		now = s.now()
	}

	result := s.engine.Analyze(in.Text)
	s.metrics.RecordAnalysis(string(result.Emotion.Primary), string(result.Crisis.Tier))

	reply := Reply{Analysis: result}

	switch {
	case result.Crisis.NeedsEscalation:
		intervention := s.policy.HandleCrisis(result.Crisis.Tier, in.Location, username)
		reply.Text = intervention.Text
		reply.Mode = ModeEscalation
		reply.Intervention = &intervention
		slog.Warn("crisis escalation", "component", "chat",
			"tier", result.Crisis.Tier, "matched", result.Crisis.Matched,
			"location", in.Location, "resource", intervention.Location)

	default:
		text, err := s.generate(ctx, in, username, result, now)
		if err == nil {
			reply.Text = text
			reply.Mode = ModeGenerated
		} else {
			if !errors.Is(err, errNoGenerator) {
				reply.GeneratorErr = err
			}
			s.templateReply(&reply, in.Text, username)
		}
	}

	reply.Text = response.Personalize(reply.Text, username)
	s.metrics.RecordReply(string(reply.Mode))
	return reply
}

var errNoGenerator = errors.New("generator not available")

func (s *Service) generate(ctx context.Context, in Input, username string, result analysis.Result, now time.Time) (string, error) {
	if s.generator == nil || !s.generator.Available(ctx) {
		return "", errNoGenerator
	}

	history := make([]ai.Turn, 0, len(in.History))
	for _, t := range in.History {
		history = append(history, ai.Turn{Message: t.Message, Response: t.Response, Emotion: t.Emotion})
	}

	prompt := ai.Prompt{
		DisplayName:   username,
		Message:       in.Text,
		Emotion:       result.Emotion.Primary,
		Sentiment:     result.Sentiment.Label,
		MessageLength: result.MessageLength,
		History:       history,
		HistoryLimit:  s.historyLimit,
		Now:           now,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ai.ErrEmptyResponse
	}
	s.metrics.RecordGeneration(generationOutcome(err), time.Since(start))
	if err != nil {
		slog.Warn("generator failed, using template fallback", "component", "chat", "error", err)
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func generationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ai.ErrContentFiltered):
		return "filtered"
	case errors.Is(err, ai.ErrEmptyResponse):
		return "empty"
	default:
		return "error"
	}
}

// templateReply 组装模板回退：模板、治疗性引导，再以各自独立的概率追加追问与应对策略。
// 命中高风险短语时整体替换为安全提示。
func (s *Service) templateReply(reply *Reply, text, userKey string) {
	reply.Mode = ModeTemplate

	category := response.ResolveCategory(text, reply.Analysis.Emotion.Primary)
	base, resolved := s.selector.SelectResolved(category.Value, userKey)
	if category.Outcome == lookup.FallbackUsed && resolved.Ok() {
		resolved.Outcome = lookup.FallbackUsed
	}
	reply.Category = resolved

	var b strings.Builder
	b.WriteString(base)

	technique, extra := response.Intervention(text)
	if extra != "" {
		reply.Technique = technique
		b.WriteString("\n\n")
		b.WriteString(extra)
	}

	bank := s.selector.Bank()
	if s.selector.Chance(followUpProbability) {
		if q := s.selector.Choose(bank.FollowUps(resolved.Value)); q != "" {
			b.WriteString("\n\n")
			b.WriteString(q)
		}
	}
	if s.selector.Chance(copingProbability) {
		if c := s.selector.Choose(bank.CopingStrategies(resolved.Value)); c != "" {
			b.WriteString("\n\n")
			b.WriteString(c)
		}
	}

	reply.Text = b.String()

	if s.engine.ContainsHighRisk(text) {
		reply.Text = response.SafetyMessage
		reply.SafetyOverride = true
	}
}

// ConverseInput 是 Converse 的输入；历史从对话日志读取。
type ConverseInput struct {
	Text     string
	Username string
	Location string
	Now      time.Time
}

// Converse 读取最近历史、生成回复并追加到对话日志。日志读写失败只记录不中断。
func (s *Service) Converse(ctx context.Context, in ConverseInput) (Reply, error) {
	if strings.TrimSpace(in.Text) == "" {
		return Reply{}, ErrEmptyMessage
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = defaultUsername
	}

	var history []chat.Turn
	if s.log != nil {
		turns, err := s.log.Recent(ctx, username, ConverseHistoryLimit)
		if err != nil {
			slog.Error("load conversation history", "component", "chat", "username", username, "error", err)
		} else {
			history = turns
		}
	}

	reply := s.Respond(ctx, Input{
		Text:     in.Text,
		Username: username,
		Location: in.Location,
		History:  history,
		Now:      in.Now,
	})

	if s.log != nil {
		createdAt := in.Now
		if createdAt.IsZero() {
			createdAt = s.now()
		}
		_, err := s.log.Append(ctx, chat.Turn{
			Username:   username,
			Message:    in.Text,
			Response:   reply.Text,
			Emotion:    string(reply.Analysis.Emotion.Primary),
			CrisisTier: string(reply.Analysis.Crisis.Tier),
			Sentiment:  string(reply.Analysis.Sentiment.Label),
			CreatedAt:  createdAt.UTC(),
		})
		if err != nil {
			slog.Error("append conversation turn", "component", "chat", "username", username, "error", err)
		}
	}

	return reply, nil
}
