// Package server contains the HTTP facade for the access workflow: the
// public submission endpoint, the admin inbox and decision endpoints, the
// user roster, and the locally persisted admin session.
package server

import (
	"context"
	"log"
	"time"

	"acceso/internal/cache"
	"acceso/internal/config"
	"acceso/internal/credentials"
	"acceso/internal/featureflags"
	"acceso/internal/gateway"
	"acceso/internal/middleware"
	"acceso/internal/models"
	"acceso/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	session         *credentials.Store
	gateway         *gateway.Client
	flags           *featureflags.Manager
	requestService  *service.RequestService
	decisionService *service.DecisionService
	userService     *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize Redis (optional view cache)
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	session, err := credentials.Open(cfg.AdminSessionFile)
	if err != nil {
		return nil, err
	}

	gw := gateway.New(cfg.AccessAPIURL, cfg.AccessAPITimeout, session)

	return NewServerWithDeps(cfg, session, gw, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the session store,
// gateway and Redis explicitly.
func NewServerWithDeps(cfg *config.Config, session *credentials.Store, gw *gateway.Client, redisClient *redis.Client) (*Server, error) {
	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("acceso-api")

	server := &Server{
		config:          cfg,
		redis:           redisClient,
		promMiddleware:  prom,
		session:         session,
		gateway:         gw,
		flags:           featureflags.NewManager(cfg.FeatureFlags),
		requestService:  service.NewRequestService(gw),
		decisionService: service.NewDecisionService(gw),
		userService:     service.NewUserService(gw),
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// OpenTelemetry span per request
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	// Backwards-compatible legacy route: map /health to readiness (keeps existing scripts working)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Acceso Metrics Dashboard",
	}))

	access := api.Group("/access")

	// Public submission, throttled per IP
	requests := access.Group("/requests")
	requests.Post("/", middleware.RateLimit(
		s.redis, s.config.SubmitRateLimit, 10*time.Minute, "submit_request"), s.SubmitAccessRequest)

	// Admin inbox and decisions. Authorization happens upstream: the access
	// service checks the stored token attached by the gateway.
	requests.Get("/", s.GetAccessRequests)
	requests.Get("/stats", s.GetAccessStats)
	requests.Post("/:id/approve", s.ApproveAccessRequest)
	requests.Post("/:id/reject", s.RejectAccessRequest)

	// User roster
	users := access.Group("/users")
	users.Get("/", s.GetAccessUsers)
	users.Put("/:id", s.UpdateAccessUserStatus)

	// Local admin session
	adminSession := access.Group("/admin/session")
	adminSession.Get("/", s.GetAdminSession)
	adminSession.Put("/", s.SaveAdminSession)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Readiness means the
// access service answers its health endpoint; Redis is reported but never
// gates readiness since the cache is optional.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	upstreamStatus := "healthy"
	if _, err := s.gateway.Health(ctx); err != nil {
		upstreamStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if upstreamStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"access_service": upstreamStatus,
			"redis":          redisStatus,
		},
		"session_configured": s.session.Configured(),
		"time":               time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Acceso API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Custom error handler
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Shutdown the HTTP server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
