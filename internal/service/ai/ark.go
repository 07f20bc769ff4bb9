package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mental-buddy/backend/internal/config"
)

// ArkGenerator 通过 eino 链调用方舟大模型生成回复。
type ArkGenerator struct {
	model string
	chain compose.Runnable[map[string]any, *schema.Message]
	avail *availability
}

// NewArkGenerator creates the Ark chat model from cfg and compiles the chain.
func NewArkGenerator(ctx context.Context, cfg config.AIConfig) (*ArkGenerator, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewArkGeneratorWithModel(ctx, cfg.Model, chatModel)
}

// NewArkGeneratorWithModel 用给定的 ChatModel 组装链。
func NewArkGeneratorWithModel(ctx context.Context, name string, chatModel model.BaseChatModel) (*ArkGenerator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkGenerator{
		model: name,
		chain: runnable,
		avail: newAvailability(),
	}, nil
}

func (g *ArkGenerator) Name() string {
	return "ark"
}

// Available 返回最近一次探测的结果。
func (g *ArkGenerator) Available(context.Context) bool {
	return g.avail.ok.Load()
}

// Ping 发送一条极短的请求并刷新可用状态。
func (g *ArkGenerator) Ping(ctx context.Context) error {
	return g.avail.probe(ctx, g.Name(), func(ctx context.Context) (string, error) {
		return g.invoke(ctx, map[string]any{
			"system":  "Reply with a single word.",
			"history": []*schema.Message(nil),
			"query":   "Hello",
		})
	})
}

// Generate 生成一条共情回复。
func (g *ArkGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	content, err := g.invoke(ctx, buildChainInput(p))
	if err != nil {
		return "", err
	}
	slog.Debug("generated response", "component", "ai", "provider", g.Name(),
		"model", g.model, "length", len(content))
	return content, nil
}

func (g *ArkGenerator) invoke(ctx context.Context, input map[string]any) (string, error) {
	response, err := g.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", ErrEmptyResponse
	}
	finish := ""
	if response.ResponseMeta != nil {
		finish = response.ResponseMeta.FinishReason
	}
	return checkOutput(response.Content, finish)
}

func buildChainInput(p Prompt) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(p),
		"history": buildHistoryMessages(p.RecentHistory()),
		"query":   p.Message,
	}
}

func buildHistoryMessages(turns []Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}
	history := make([]*schema.Message, 0, len(turns)*2)
	for _, turn := range turns {
		history = append(history, schema.UserMessage(turn.Message))
		if turn.Response != "" {
			history = append(history, schema.AssistantMessage(turn.Response, nil))
		}
	}
	return history
}
