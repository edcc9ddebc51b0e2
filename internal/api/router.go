package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/veriface/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/veriface/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/veriface/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/veriface/internal/database"
	"github.com/saturnino-fabrica-de-software/veriface/internal/ws"
)

type Dependencies struct {
	Verification handler.VerificationService
	Documents    handler.DocumentService
	// DB is probed by /health/ready; nil when persistence is disabled
	DB      database.Pinger
	Hub     *ws.Hub
	Capture ws.Options
}

// Security holds the access controls applied to /v1
type Security struct {
	APIKeyHash         string
	RateLimitPerMinute int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	security    Security
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, security Security, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Veriface API",
		// two images of up to 10MB each plus form overhead
		BodyLimit: 24 * 1024 * 1024,
	})

	return &Router{
		app:      app,
		logger:   logger,
		deps:     deps,
		security: security,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders: "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	var db database.Pinger
	if r.deps != nil {
		db = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(db)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/health/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")
	v1.Use(middleware.APIKeyAuth(r.security.APIKeyHash))

	// Rate limiting must come after auth to key by API key
	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    r.security.RateLimitPerMinute,
		Window: time.Minute,
	})
	v1.Use(r.rateLimiter.Handler())

	if r.deps.Verification != nil {
		verificationHandler := handler.NewVerificationHandler(r.deps.Verification, r.logger)
		v1.Post("/verify", verificationHandler.Verify)
		v1.Post("/quality", verificationHandler.Quality)
		v1.Get("/verifications/:id", verificationHandler.Get)
	}

	if r.deps.Documents != nil {
		documentHandler := handler.NewDocumentHandler(r.deps.Documents, r.logger)
		v1.Post("/documents/extract", documentHandler.Extract)
		v1.Get("/documents/formats", documentHandler.Formats)
		v1.Get("/documents/extractions/:id", documentHandler.Get)
	}

	if r.deps.Hub != nil {
		opts := r.deps.Capture
		if opts.Logger == nil {
			opts.Logger = r.logger
		}
		v1.Get("/ws/capture/:device", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub, opts))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.ShutdownWithTimeout(10 * time.Second)
}
