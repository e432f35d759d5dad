package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/creator-sales-engine/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/creator-sales-engine/internal/http/middleware"
	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Engine             *handlers.EngineHandler
	Templates          *handlers.TemplatesHandler
	Audit              *handlers.AuditHandler
	CreatorJWTSecret   string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimiter is optional; nil disables throttling.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.Engine == nil {
		panic("router: engine handler required")
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(httpmiddleware.CreatorJWT(cfg.CreatorJWTSecret))
		if cfg.RateLimiter != nil {
			v1.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}

		v1.Post("/stage/next", cfg.Engine.NextStage)
		v1.Post("/priority", cfg.Engine.Priority)
		v1.Get("/inbox", cfg.Engine.Inbox)
		v1.Get("/engine/qa", cfg.Engine.QASnapshot)

		v1.Route("/drafts", func(d chi.Router) {
			d.Post("/", cfg.Engine.ComposeDraft)
			d.Post("/score", cfg.Engine.ScoreDraft)
			d.Post("/check", cfg.Engine.CheckDraft)
			if cfg.Audit != nil {
				d.Get("/audit", cfg.Audit.List)
			}
		})

		if cfg.Templates != nil {
			v1.Get("/templates/{usage}", cfg.Templates.Get)
			v1.Put("/templates/{usage}", cfg.Templates.Put)
			v1.Delete("/templates/{usage}", cfg.Templates.Delete)
		}

		v1.Route("/fans/{fanID}", func(fan chi.Router) {
			fan.Post("/stage/actions", cfg.Engine.ApplyStageAction)
			fan.Get("/ladder", cfg.Engine.Ladder)
			fan.Get("/plan", cfg.Engine.Plan)
			fan.Post("/drafts", cfg.Engine.DraftForFan)
		})
	})

	return r
}
