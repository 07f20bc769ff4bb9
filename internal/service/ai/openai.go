package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zhouzirui/mental-buddy/backend/internal/config"
)

// OpenAIGenerator 调用 OpenAI 兼容的 Chat Completions 接口。
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature *float64
	topP        *float64
	avail       *availability
}

// NewOpenAIGenerator builds a client from cfg.
func NewOpenAIGenerator(cfg config.AIConfig) (*OpenAIGenerator, error) {
	if cfg.OpenAIKey == "" {
		return nil, ErrNotConfigured
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIKey),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	model := cfg.OpenAIModel
	if model == "" {
		model = "gpt-4o-mini"
	}

	maxTokens := 350
	if cfg.MaxTokens != nil {
		maxTokens = *cfg.MaxTokens
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		avail:       newAvailability(),
	}, nil
}

func (g *OpenAIGenerator) Name() string {
	return "openai"
}

func (g *OpenAIGenerator) Available(context.Context) bool {
	return g.avail.ok.Load()
}

func (g *OpenAIGenerator) Ping(ctx context.Context) error {
	return g.avail.probe(ctx, g.Name(), func(ctx context.Context) (string, error) {
		return g.complete(ctx, []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Reply with a single word."),
			openai.UserMessage("Hello"),
		}, 5)
	})
}

func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	return g.complete(ctx, convertPrompt(p), g.maxTokens)
}

func (g *OpenAIGenerator) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, maxTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:     g.model,
		Messages:  messages,
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	if g.temperature != nil {
		params.Temperature = openai.Float(*g.temperature)
	}
	if g.topP != nil {
		params.TopP = openai.Float(*g.topP)
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	choice := resp.Choices[0]
	slog.DebugContext(ctx, "chat completion finished",
		"component", "ai",
		"model", g.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"finish_reason", choice.FinishReason)

	return checkOutput(choice.Message.Content, string(choice.FinishReason))
}

func convertPrompt(p Prompt) []openai.ChatCompletionMessageParamUnion {
	history := p.RecentHistory()
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)*2+2)
	messages = append(messages, openai.SystemMessage(BuildSystemPrompt(p)))
	for _, turn := range history {
		messages = append(messages, openai.UserMessage(turn.Message))
		if turn.Response != "" {
			messages = append(messages, openai.AssistantMessage(turn.Response))
		}
	}
	return append(messages, openai.UserMessage(p.Message))
}
