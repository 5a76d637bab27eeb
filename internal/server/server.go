// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"bazaarhub/internal/auth"
	"bazaarhub/internal/cache"
	"bazaarhub/internal/config"
	"bazaarhub/internal/database"
	"bazaarhub/internal/engagement"
	"bazaarhub/internal/feed"
	"bazaarhub/internal/middleware"
	"bazaarhub/internal/models"
	"bazaarhub/internal/observability"
	"bazaarhub/internal/ratelimit"
	"bazaarhub/internal/repository"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	counters       *cache.Counters
	limiter        *ratelimit.Limiter
	engine         *engagement.Engine
	feed           *feed.Assembler
	sessions       *auth.SessionStore
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Dial the counter cache; a failed ping degrades to the in-process store
	// rather than failing startup.
	counters := cache.NewCounters(cfg.RedisURL, middleware.Logger)

	return newServerWith(cfg, db, counters), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis first.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, counters *cache.Counters) *Server {
	return newServerWith(cfg, db, counters)
}

func newServerWith(cfg *config.Config, db *gorm.DB, counters *cache.Counters) *Server {
	if counters.Degraded() {
		observability.CacheDegradedMode.Set(1)
	} else {
		observability.CacheDegradedMode.Set(0)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	lim := ratelimit.NewLimiter(counters, cfg.RateLimitPerMinute, cfg.RateLimitPerHour)

	return &Server{
		config:         cfg,
		db:             db,
		counters:       counters,
		limiter:        lim,
		engine:         engagement.NewEngine(db, counters, lim),
		feed:           feed.NewAssembler(postRepo, counters, cfg.FeedPageSize),
		sessions:       auth.NewSessionStore(time.Duration(cfg.SessionTTLHours) * time.Hour),
		userRepo:       userRepo,
		postRepo:       postRepo,
		promMiddleware: middleware.InitMetrics("bazaarhub-api"),
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS before middlewares that can short-circuit so browser clients still
	// receive CORS headers on error responses.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global per-IP rate limiting. Per-user engagement ceilings are enforced
	// separately by the engagement engine's limiter.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
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
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Registration, login and availability validation
	app.Post("/register", s.Register)
	app.Post("/login", s.Login)
	app.Post("/logout", s.Logout)
	app.Get("/validate/email/:email", s.ValidateEmail)
	app.Get("/validate/mobile/:mobile", s.ValidateMobile)
	app.Get("/validate/ntn/:ntn", s.ValidateNTN)

	// Profile management (session required)
	app.Get("/profile", s.GetProfile)
	app.Put("/profile", s.UpdateProfile)
	app.Post("/profile/image", s.UploadProfileImage)

	// Engagement actions: plain-text counter responses
	app.Post("/like-post", s.LikePost)
	app.Post("/share-post", s.SharePost)

	// Merged timeline
	app.Get("/feed", s.GetFeed)

	// Post creation and engagement enumeration
	app.Post("/posts", s.CreatePost)
	api := app.Group("/api")
	api.Get("/posts/:id/likes", s.GetPostLikes)
	api.Get("/posts/:id/shares", s.GetPostShares)
	api.Get("/posts/:id/comments", s.GetPostComments)
	api.Post("/posts/:id/comments", s.CreateComment)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. A degraded counter cache
// does not fail readiness: the application serves correctly from the
// relational store alone.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	cacheStatus := "healthy"
	if s.counters.Degraded() {
		cacheStatus = "degraded"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database":      dbStatus,
			"counter_cache": cacheStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "BazaarHub API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if err := s.counters.Close(); err != nil {
		log.Printf("error closing counter cache: %v", err)
	}

	log.Println("Server shutdown complete")
	return nil
}
