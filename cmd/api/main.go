package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis"
	"github.com/zhouzirui/mental-buddy/backend/internal/config"
	"github.com/zhouzirui/mental-buddy/backend/internal/handler"
	"github.com/zhouzirui/mental-buddy/backend/internal/handler/system"
	"github.com/zhouzirui/mental-buddy/backend/internal/metrics"
	"github.com/zhouzirui/mental-buddy/backend/internal/middleware"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/voice"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/ai"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/auth"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/escalation"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/insights"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/response"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/speech"
	"github.com/zhouzirui/mental-buddy/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)
	if envErr != nil {
		slog.Info("no .env file loaded, using system environment variables only", "error", envErr)
	}

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("close store", "component", "store", "error", err)
		}
	}()

	table, err := escalation.LoadResourceTable(cfg.Crisis.ResourcesFile)
	if err != nil {
		return err
	}
	if _, ok := table.Locations[cfg.Crisis.DefaultLocation]; ok {
		table.DefaultLocation = cfg.Crisis.DefaultLocation
	} else {
		slog.Warn("crisis default location has no resources, keeping table default",
			"component", "escalation", "requested", cfg.Crisis.DefaultLocation, "default", table.DefaultLocation)
	}

	m := metrics.New()
	engine := analysis.NewEngine()

	chatOpts := []chat.Option{
		chat.WithConversationLog(st),
		chat.WithMetrics(m),
		chat.WithTimeout(cfg.AI.Timeout),
		chat.WithHistoryLimit(cfg.AI.HistoryLimit),
	}
	generator, err := ai.New(ctx, cfg.AI)
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		slog.Info("AI 凭证未配置，使用模板回复", "component", "ai")
		generator = nil
	case err != nil:
		slog.Warn("failed to initialize AI generator, using template responses", "component", "ai", "error", err)
		generator = nil
	default:
		if err := generator.Ping(ctx); err != nil {
			slog.Warn("AI generator probe failed, will retry on demand", "component", "ai",
				"provider", generator.Name(), "error", err)
		} else {
			slog.Info("AI generator ready", "component", "ai", "provider", generator.Name())
		}
		chatOpts = append(chatOpts, chat.WithGenerator(generator))
	}
	chatSvc := chat.NewService(engine, escalation.NewPolicy(table), response.NewSelector(nil), chatOpts...)

	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		if secret, err = auth.GenerateSecret(); err != nil {
			return err
		}
		slog.Warn("JWT_SECRET not set, tokens will not survive a restart", "component", "auth")
	}
	authSvc := auth.NewService(st, secret, cfg.Auth.TokenTTL)

	speechSvc := newSpeechService(cfg.Speech, m)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute)
	defer limiter.Stop()

	status := system.Status{
		Generator: generator,
		Store:     st,
		StoreName: cfg.Store.Driver,
		Voice:     speechSvc.Available(),
		Resources: table,
	}

	router := handler.NewRouter(handler.Dependencies{
		Chat:      chatSvc,
		Auth:      authSvc,
		Insights:  insights.NewService(st),
		Speech:    speechSvc,
		Engine:    engine,
		Resources: table,
		Metrics:   m,
		Limiter:   limiter,
		System:    status,

		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	return startServer(ctx, cfg.Server, router)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store, data is lost on restart", "component", "store")
		return store.NewMemoryStore(), nil
	case config.DriverPostgres:
		st, err := store.NewPostgresStore(ctx, store.PostgresConfig{DSN: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		slog.Info("postgres store ready", "component", "store")
		return st, nil
	default:
		st, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		slog.Info("sqlite store ready", "component", "store", "path", cfg.SQLitePath)
		return st, nil
	}
}

// newSpeechService 总是返回服务；凭证缺失时只提供音色目录。
func newSpeechService(cfg config.SpeechConfig, m *metrics.Metrics) *speech.Service {
	voices := voice.NewMemoryStore(voice.Seed())
	if _, err := voices.SetCurrent(cfg.Voice); err != nil {
		slog.Warn("configured voice not found, using default", "component", "speech",
			"voice", cfg.Voice, "default", voices.Current().ID)
	}

	opts := []speech.Option{
		speech.WithTimeout(cfg.Timeout),
		speech.WithMetrics(m),
		speech.WithRatios(cfg.Speed, cfg.Volume),
	}

	client, err := speech.NewClient(cfg)
	if err != nil {
		slog.Info("语音服务凭证未配置，跳过语音合成", "component", "speech")
		return speech.NewService(nil, voices, opts...)
	}
	slog.Info("speech synthesis enabled", "component", "speech", "voice", voices.Current().ID)
	return speech.NewService(client, voices, opts...)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("Mental Buddy backend listening", "addr", serverCfg.Addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
