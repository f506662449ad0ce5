// Package server contains the HTTP and WebSocket handlers of the TIPA API.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	_ "tipa/docs" // swagger docs
	"tipa/internal/config"
	"tipa/internal/featureflags"
	"tipa/internal/jobs"
	"tipa/internal/membership"
	"tipa/internal/middleware"
	"tipa/internal/models"
	"tipa/internal/notifications"
	"tipa/internal/repository"
	"tipa/internal/service"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	verifier     *middleware.IdentityVerifier
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager
	sweeper      *jobs.ExpirySweeper

	memberService   *service.MemberService
	threadService   *service.ThreadService
	commentService  *service.CommentService
	eventService    *service.EventService
	inviteService   *service.InviteService
	paymentService  *service.PaymentService
	resourceService *service.ResourceService
}

// NewServer builds a Server on already-initialized dependencies. redisClient
// may be nil; the API then runs without cache, shared rate limits or
// cross-instance notifications.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	policy, err := cfg.MembershipPolicy()
	if err != nil {
		return nil, fmt.Errorf("membership policy: %w", err)
	}
	resolver := membership.NewResolver(policy)

	memberRepo := repository.NewMemberRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	eventRepo := repository.NewEventRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("tipa-api"),
		verifier:       middleware.NewIdentityVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		sweeper:        jobs.NewExpirySweeper(memberRepo, resolver),
	}
	s.memberService = service.NewMemberService(memberRepo, resolver)
	s.threadService = service.NewThreadService(threadRepo, s.isAdminByMemberID)
	s.commentService = service.NewCommentService(commentRepo, threadRepo, s.isAdminByMemberID)
	s.eventService = service.NewEventService(eventRepo)
	s.inviteService = service.NewInviteService(inviteRepo, memberRepo, cfg.InviteTTL(), cfg.InviteMaxRows)
	s.paymentService = service.NewPaymentService(paymentRepo, memberRepo)
	s.resourceService = service.NewResourceService(resourceRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	// Credentials cannot be combined with a wildcard origin.
	origins := s.config.Origins()
	allowCredentials := origins != "" && origins != "*"
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
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

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public browsing
	api.Get("/threads", middleware.RateLimit(s.redis, 60, time.Minute, "list_threads"), s.ListThreads)
	api.Get("/threads/:id/comments", s.ListComments)
	api.Get("/threads/:id", s.GetThread)
	api.Get("/events", s.ListEvents)
	api.Get("/events/:id", s.GetEvent)
	api.Get("/resources", s.ListResources)

	identity := s.verifier.IdentityRequired()

	// Identity only: no profile needed yet
	api.Post("/members/apply", identity, middleware.RateLimit(s.redis, 5, 10*time.Minute, "apply"), s.Apply)
	api.Post("/invites/:id/accept", identity, middleware.RateLimit(s.redis, 10, 10*time.Minute, "accept_invite"), s.AcceptInvite)

	me := api.Group("/members/me", identity, s.MemberRequired())
	me.Get("/", s.GetMyProfile)
	me.Put("/", s.UpdateMyProfile)
	me.Get("/status", s.GetMyStatus)

	// Member access required. Chained per route: an empty-prefix group
	// would run these checks for every later /api route.
	member := []fiber.Handler{identity, s.MemberRequired(), s.AccessRequired()}
	withMember := func(h ...fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, member...), h...)
	}
	api.Post("/threads", withMember(middleware.RateLimit(s.redis, 5, 5*time.Minute, "create_thread"), s.CreateThread)...)
	api.Delete("/threads/:id", withMember(s.DeleteThread)...)
	api.Post("/threads/:id/comments", withMember(middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)...)
	api.Delete("/comments/:id", withMember(s.DeleteComment)...)
	api.Put("/events/:id/rsvp", withMember(s.RSVP)...)
	api.Delete("/events/:id/rsvp", withMember(s.CancelRSVP)...)

	ws := api.Group("/ws", s.verifier.WebSocketIdentityRequired(), s.MemberRequired(), s.AccessRequired())
	ws.Get("/", s.WebsocketHandler())

	// Admin
	admin := api.Group("/admin", identity, s.MemberRequired(), s.AdminRequired())
	admin.Get("/members", s.AdminListMembers)
	admin.Post("/members/:id/approve", s.ApproveMember)
	admin.Post("/members/:id/reject", s.RejectMember)
	admin.Put("/members/:id/level", s.SetMemberLevel)
	admin.Delete("/members/:id", s.DeleteMember)
	admin.Get("/members/:id/payments", s.ListMemberPayments)
	admin.Post("/invites/import", s.ImportInvites)
	admin.Get("/invites", s.ListInvites)
	admin.Delete("/invites/:id", s.RevokeInvite)
	admin.Post("/payments", s.RecordPayment)
	admin.Post("/events", s.CreateEvent)
	admin.Put("/events/:id", s.UpdateEvent)
	admin.Delete("/events/:id", s.DeleteEvent)
	admin.Get("/events/:id/attendees", s.ListAttendees)
	admin.Post("/resources", s.PublishResource)
	admin.Delete("/resources/:id", s.DeleteResource)
	admin.Post("/sweep", s.RunSweep)
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "TIPA API Metrics"}))
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "TIPA API",
		BodyLimit: 4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now().UTC()})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so
// only the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status, overall := fiber.StatusOK, "healthy"
	if dbStatus != "healthy" {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	} else if redisStatus != "healthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start wires notifications, schedules the expiry sweep and serves HTTP
// until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.redis != nil {
		if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
			middleware.Logger.Error("Failed to start notification wiring", "error", err)
		}
	}
	if s.config.SweepEnabled() {
		if err := s.sweeper.Schedule(ctx, s.config.ExpirySweepCron); err != nil {
			return err
		}
	}

	middleware.Logger.Info("Server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops background work, closes websockets and releases the
// database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("Error shutting down HTTP server", "error", err)
		}
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("Error shutting down notification hub", "error", err)
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("Error closing database", "error", cerr)
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("Error closing redis", "error", rerr)
		}
	}
	middleware.Logger.Info("Server shutdown complete")
	return nil
}
