package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zhouzirui/mental-buddy/backend/internal/config"
)

var (
	ErrContentFiltered = errors.New("generator response was filtered")
	ErrEmptyResponse   = errors.New("generator returned an empty response")
	ErrNotConfigured   = errors.New("generator credentials or model missing")
)

const probeTimeout = 5 * time.Second

// Generator 是外部大模型回复生成器。
type Generator interface {
	Name() string
	Available(ctx context.Context) bool
	Ping(ctx context.Context) error
	Generate(ctx context.Context, p Prompt) (string, error)
}

// New 根据 cfg.Provider 创建生成器。
func New(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg)
	case config.ProviderArk:
		return NewArkGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// availability 缓存最近一次探测结果。构造后默认可用。
type availability struct {
	ok atomic.Bool
}

func newAvailability() *availability {
	a := &availability{}
	a.ok.Store(true)
	return a
}

func (a *availability) probe(ctx context.Context, name string, call func(context.Context) (string, error)) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	_, err := call(ctx)
	a.ok.Store(err == nil)
	if err != nil {
		slog.Warn("generator probe failed", "component", "ai", "provider", name, "error", err)
		return fmt.Errorf("%s probe: %w", name, err)
	}
	slog.Info("generator probe succeeded", "component", "ai", "provider", name,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// checkOutput 把结束原因与空输出映射为哨兵错误。
func checkOutput(content, finishReason string) (string, error) {
	if strings.EqualFold(finishReason, "content_filter") || strings.EqualFold(finishReason, "sensitive") {
		return "", ErrContentFiltered
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
