package api

import (
	"log/slog"
	"strings"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illegalcall/esgtracker/internal/billing"
	reportcache "github.com/illegalcall/esgtracker/internal/cache"
	"github.com/illegalcall/esgtracker/internal/config"
	"github.com/illegalcall/esgtracker/internal/events"
	"github.com/illegalcall/esgtracker/internal/pkg/supabase"
	"github.com/illegalcall/esgtracker/internal/plans"
	"github.com/illegalcall/esgtracker/internal/report"
	"github.com/illegalcall/esgtracker/internal/storage"
)

// Deps are the collaborators the server is built from. Checkout, Webhooks,
// Auth and ReportCache may be nil when the matching service is not
// configured.
type Deps struct {
	Store       storage.Storage
	Generator   *report.Generator
	Checkout    *billing.Checkout
	Webhooks    *billing.WebhookHandler
	Catalog     *plans.Catalog
	Auth        supabase.AuthClient
	ReportCache *reportcache.ReportCache
	Publisher   events.Publisher
	Registry    *prometheus.Registry
	Logger      *slog.Logger
}

type Server struct {
	app         *fiber.App
	cfg         *config.Config
	logger      *slog.Logger
	store       storage.Storage
	generator   *report.Generator
	checkout    *billing.Checkout
	webhooks    *billing.WebhookHandler
	catalog     *plans.Catalog
	auth        supabase.AuthClient
	reportCache *reportcache.ReportCache
	publisher   events.Publisher
	metrics     *Metrics

	authRequired fiber.Handler
	authOptional fiber.Handler
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	app := fiber.New(fiber.Config{
		AppName:      "esgtracker",
		ErrorHandler: errorHandler(deps.Logger),
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestTimeout,
		Next: func(c *fiber.Ctx) bool {
			// Stripe retries on its own schedule and must never be throttled.
			return c.Path() == "/health" || c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/api/webhooks/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			return errorResponse(c, fiber.StatusTooManyRequests, "Too many requests")
		},
	}))

	server := &Server{
		app:         app,
		cfg:         cfg,
		logger:      deps.Logger,
		store:       deps.Store,
		generator:   deps.Generator,
		checkout:    deps.Checkout,
		webhooks:    deps.Webhooks,
		catalog:     deps.Catalog,
		auth:        deps.Auth,
		reportCache: deps.ReportCache,
		publisher:   deps.Publisher,
		metrics:     NewMetrics(deps.Registry),
	}
	server.authRequired = newAuthMiddleware(cfg.Supabase.JWTSecret, false)
	server.authOptional = newAuthMiddleware(cfg.Supabase.JWTSecret, true)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")

	// Public routes
	api.Get("/plans", cache.New(cache.Config{
		Expiration:   s.cfg.Server.CacheExpiration,
		CacheControl: true,
	}), s.handleListPlans)
	api.Post("/auth/signup", s.handleSignup)
	api.Post("/auth/login", s.handleLogin)
	api.Post("/webhooks/stripe", s.handleStripeWebhook)

	// Guests may generate; a bearer token, when sent, must be valid.
	api.Post("/generate", s.authOptional, s.handleGenerate)

	// Protected routes
	api.Post("/auth/signout", s.authRequired, s.handleSignout)
	api.Post("/checkout", s.authRequired, s.handleCheckout)
	api.Get("/profile", s.authRequired, s.handleGetProfile)
	api.Get("/reports", s.authRequired, s.handleListReports)
	api.Get("/reports/:id", s.authRequired, s.handleGetReport)
	api.Get("/reports/:id/export", s.authRequired, s.handleExportReport)
}

func (s *Server) Start() error {
	s.logger.Info("🚀 API listening", "addr", s.cfg.Server.Port, "llm_backend", s.generator.Backend())
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(s.cfg.Server.ShutdownTimeout)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleListPlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": s.catalog.List()})
}
