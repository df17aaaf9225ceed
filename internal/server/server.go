// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"time"

	"rendez/internal/calendar"
	"rendez/internal/config"
	"rendez/internal/directory"
	"rendez/internal/kv"
	"rendez/internal/middleware"
	"rendez/internal/models"
	"rendez/internal/repository"
	"rendez/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          kv.Store
	promMiddleware *fiberprometheus.FiberPrometheus
	identities     directory.Registry
	calendar       calendar.Gateway
	friendRepo     repository.FriendRepository
	friendService  *service.FriendService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	store, err := kv.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	gateway := calendar.NewHTTPGateway(cfg.CalendarBaseURL)
	return NewServerWithDeps(cfg, store, gateway), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the store and
// gateway itself.
func NewServerWithDeps(cfg *config.Config, store kv.Store, gateway calendar.Gateway) *Server {
	identities := directory.NewRegistry(store)
	friendRepo := repository.NewFriendRepository(store)

	return &Server{
		config:         cfg,
		store:          store,
		promMiddleware: middleware.InitMetrics("rendez-api"),
		identities:     identities,
		calendar:       gateway,
		friendRepo:     friendRepo,
		friendService:  service.NewFriendService(friendRepo, identities, gateway),
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.TracingMiddleware())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-User-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
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

// SetupRoutes configures the API routes
func (s *Server) SetupRoutes(app *fiber.App) {
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	identities := api.Group("/identities")
	identities.Post("/", s.CreateIdentity)
	identities.Get("/", s.ListIdentities)
	identities.Get("/:id", s.GetIdentity)
	identities.Delete("/:id", s.DeleteIdentity)

	friends := api.Group("/friends", s.RequireUser())
	friends.Get("/", s.GetFriends)
	friends.Get("/search", s.SearchUser)
	friends.Post("/requests", s.SendFriendRequest)
	friends.Get("/requests", s.GetFriendRequests)
	friends.Post("/requests/:requestId/accept", s.AcceptFriendRequest)
	friends.Post("/requests/:requestId/reject", s.RejectFriendRequest)
	friends.Post("/availability", s.CheckAvailability)
	friends.Post("/events", s.RequestCalendarEvent)

	notes := api.Group("/notes", s.RequireUser())
	notes.Post("/", s.CreateNote)
	notes.Get("/", s.ListNotes)
	notes.Get("/:id", s.GetNote)
	notes.Patch("/:id", s.UpdateNote)
	notes.Delete("/:id", s.DeleteNote)
}

// RequireUser resolves the caller from the X-User-ID header against the
// identity directory and stores the id in Locals("userID").
func (s *Server) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return models.RespondWithError(c, models.NewForbiddenError("Missing X-User-ID header"))
		}

		identity, err := s.identities.FindByID(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, err)
		}
		if identity == nil {
			return models.RespondWithError(c, models.NewForbiddenError("Unknown user"))
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// Shutdown releases server resources.
func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
