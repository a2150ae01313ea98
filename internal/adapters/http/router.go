package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/riskmap/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	// Place resolution and tile fetching talk to third parties.
	upstreamTimeout = 30 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Deprecation headers on the original checkpoint backend's paths
	app.Use(DeprecationMiddleware(legacyRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Map sessions
	v1.Post("/sessions", timeout.NewWithContext(CreateSessionHandler(deps), requestTimeout))
	v1.Get("/sessions/:id", timeout.NewWithContext(GetSessionHandler(deps), requestTimeout))
	v1.Delete("/sessions/:id", timeout.NewWithContext(DeleteSessionHandler(deps), requestTimeout))
	v1.Post("/sessions/:id/select", timeout.NewWithContext(SelectHandler(deps), requestTimeout))
	v1.Post("/sessions/:id/zoom", timeout.NewWithContext(ZoomHandler(deps), requestTimeout))
	v1.Get("/sessions/:id/geojson", timeout.NewWithContext(SessionGeoJSONHandler(deps), requestTimeout))
	v1.Get("/sessions/:id/map.png", timeout.NewWithContext(SessionMapHandler(deps), upstreamTimeout))

	// Place search
	v1.Get("/places/autocomplete", timeout.NewWithContext(AutocompleteHandler(deps), requestTimeout))
	v1.Post("/sessions/:id/places/select", timeout.NewWithContext(ChoosePlaceHandler(deps), upstreamTimeout))

	// Checkpoints
	registerCheckpointRoutes(v1.Group("/checkpoints"), deps)

	// Original checkpoint backend paths
	app.Get("/api/health", LegacyHealthHandler())
	registerCheckpointRoutes(app.Group("/api/checkpoints"), deps)

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return errUnavailable(c, "live_updates_unavailable", "live updates are not configured")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}

func registerCheckpointRoutes(r fiber.Router, deps *Dependencies) {
	r.Get("/", timeout.NewWithContext(ListCheckpointsHandler(deps), requestTimeout))
	r.Get("/status", timeout.NewWithContext(CheckpointStatusHandler(deps), requestTimeout))
	r.Post("/predict", timeout.NewWithContext(PredictHandler(deps), requestTimeout))
	r.Post("/predict-batch", timeout.NewWithContext(PredictBatchHandler(deps), requestTimeout))
	r.Get("/geojson", timeout.NewWithContext(CheckpointGeoJSONHandler(deps), requestTimeout))
}
