package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis"
	"github.com/zhouzirui/mental-buddy/backend/internal/handler/auth"
	"github.com/zhouzirui/mental-buddy/backend/internal/handler/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/handler/insights"
	"github.com/zhouzirui/mental-buddy/backend/internal/handler/system"
	"github.com/zhouzirui/mental-buddy/backend/internal/handler/voice"
	"github.com/zhouzirui/mental-buddy/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/mental-buddy/backend/internal/middleware"
	authService "github.com/zhouzirui/mental-buddy/backend/internal/service/auth"
	chatService "github.com/zhouzirui/mental-buddy/backend/internal/service/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/escalation"
	insightService "github.com/zhouzirui/mental-buddy/backend/internal/service/insights"
	speechService "github.com/zhouzirui/mental-buddy/backend/internal/service/speech"
)

// Dependencies 是路由所需的全部服务。
type Dependencies struct {
	Chat      *chatService.Service
	Auth      *authService.Service
	Insights  *insightService.Service
	Speech    *speechService.Service
	Engine    *analysis.Engine
	Resources *escalation.ResourceTable
	Metrics   *metrics.Metrics
	Limiter   *middlewarePkg.RateLimiter
	System    system.Status

	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))
	r.Use(middlewarePkg.Metrics(deps.Metrics))

	var verifier middlewarePkg.TokenVerifier
	if deps.Auth != nil {
		verifier = deps.Auth
	}
	guard := middlewarePkg.NewAuth(verifier)
	systemHandler := system.New(deps.System)

	r.Get("/health", systemHandler.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Group(func(cr chi.Router) {
			if deps.Limiter != nil {
				cr.Use(deps.Limiter.Handler)
			}
			cr.Use(guard.OptionalAuth)
			chat.New(deps.Chat).RegisterRoutes(cr)
		})

		auth.New(deps.Auth, guard).RegisterRoutes(api)
		insights.New(deps.Insights, deps.Resources, guard).RegisterRoutes(api)
		systemHandler.RegisterRoutes(api)

		if deps.Speech != nil {
			voice.New(deps.Speech, deps.Engine).RegisterRoutes(api)
		}
	})

	return r
}
