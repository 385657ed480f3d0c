// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "twitterclone/docs" // swagger docs
	"twitterclone/internal/bootstrap"
	"twitterclone/internal/cache"
	"twitterclone/internal/config"
	"twitterclone/internal/database"
	"twitterclone/internal/events"
	"twitterclone/internal/featureflags"
	"twitterclone/internal/feed"
	"twitterclone/internal/identity"
	"twitterclone/internal/media"
	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/notifications"
	"twitterclone/internal/repository"
	"twitterclone/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// EventSink receives every committed change after it is applied locally.
type EventSink interface {
	Publish(ctx context.Context, change models.Change)
	Close() error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	identity  *identity.Provider
	storage   media.Storage
	uploader  *media.Uploader
	assembler *feed.Assembler
	notifier  *notifications.Notifier
	hub       *notifications.Hub
	feedHub   *notifications.Hub
	events    EventSink
	changes   *changeBus
	flags     *featureflags.Manager

	postService    *service.PostService
	commentService *service.CommentService
	userService    *service.UserService
	socialGraph    *service.SocialGraph
}

// Option customizes a Server built by NewServerWithDeps.
type Option func(*Server)

// WithMediaStorage replaces the object store used for uploads.
func WithMediaStorage(st media.Storage) Option {
	return func(s *Server) { s.storage = st }
}

// WithEventSink replaces the domain event stream.
func WithEventSink(sink EventSink) Option {
	return func(s *Server) { s.events = sink }
}

// WithMetrics enables the Prometheus middleware and /metrics endpoint.
// The collector registers globally, so only one server per process may use it.
func WithMetrics(serviceName string) Option {
	return func(s *Server) { s.promMiddleware = middleware.InitMetrics(serviceName) }
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedPreset: cfg.SeedPreset})
	if err != nil {
		return nil, err
	}

	storage, err := media.NewMinioStorage(media.MinioConfig{
		Endpoint:      cfg.MediaEndpoint,
		AccessKey:     cfg.MediaAccessKey,
		SecretKey:     cfg.MediaSecretKey,
		UseSSL:        cfg.MediaUseSSL,
		Bucket:        cfg.MediaBucket,
		PublicBaseURL: cfg.MediaPublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("media storage: %w", err)
	}
	bucketCtx, bucketCancel := context.WithTimeout(ctx, 10*time.Second)
	defer bucketCancel()
	if err := storage.EnsureBucket(bucketCtx); err != nil {
		// uploads fail with UPLOAD_FAILED until the store is reachable
		middleware.Logger.Warn("media bucket unavailable", slog.String("error", err.Error()))
	}

	var sink EventSink = events.Nop{}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		sink = events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		middleware.Logger.Info("kafka event stream enabled", slog.String("topic", cfg.KafkaTopic))
	}

	return NewServerWithDeps(cfg, db, redisClient,
		WithMediaStorage(storage), WithEventSink(sink), WithMetrics("twitterclone-api"))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	if redisClient != nil {
		cache.SetClient(redisClient)
	}

	s := &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		userRepo:    repository.NewUserRepository(db),
		postRepo:    repository.NewPostRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		followRepo:  repository.NewFollowRepository(db),
		notifier:    notifications.NewNotifier(redisClient),
		hub:         notifications.NewHub("notification hub"),
		feedHub:     notifications.NewHub("feed hub"),
		events:      events.Nop{},
		flags:       featureflags.NewManager(cfg.FeatureFlags),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	if s.storage == nil {
		s.storage = media.NewMemoryStorage(cfg.MediaPublicBaseURL)
	}

	s.identity = identity.NewProvider(repository.NewCredentialRepository(db), s.userRepo, cfg.JWTSecret, redisClient)
	s.uploader = media.NewUploader(s.storage, media.Options{
		MaxUploadMB:   cfg.MediaMaxUploadMB,
		PostPreset:    cfg.MediaPostPreset,
		ProfilePreset: cfg.MediaProfilePreset,
		SkipWebP:      !s.flags.EnabledOr("webp_variants", "", true),
	})
	s.assembler = feed.NewAssembler(s.postRepo, s.commentRepo)
	s.changes = newChangeBus(s.assembler, s.notifier, s.events, s.hub)

	profiles := service.NewProfileResolver(s.userRepo)
	s.socialGraph = service.NewSocialGraph(s.followRepo, profiles, s.changes)
	s.postService = service.NewPostService(s.postRepo, profiles, s.uploader, s.changes)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, profiles, s.changes)
	s.userService = service.NewUserService(s.userRepo, s.socialGraph, s.uploader, s.changes)

	return s, nil
}

// Identity exposes the identity provider to bootstrap code.
func (s *Server) Identity() *identity.Provider { return s.identity }

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health")
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
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, middleware.Rule{Name: "signup", Limit: 3, Window: 10 * time.Minute}), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, middleware.Rule{Name: "login", Limit: 10, Window: 5 * time.Minute}), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	api.Get("/features", s.OptionalAuth(), s.GetFeatureFlags)
	api.Get("/feed", s.OptionalAuth(), s.GetFeed)

	posts := api.Group("/posts")
	posts.Post("/", s.AuthRequired(), middleware.RateLimit(s.redis, middleware.Rule{Name: "create_post", Limit: 30, Window: time.Minute}), s.CreatePost)
	// specific /:id/... routes before the generic /:id
	posts.Post("/:id/like", s.AuthRequired(), s.LikePost)
	posts.Post("/:id/retweet", s.AuthRequired(), s.RetweetPost)
	posts.Post("/:id/comments", s.AuthRequired(), middleware.RateLimit(s.redis, middleware.Rule{Name: "create_comment", Limit: 30, Window: time.Minute}), s.CreateComment)
	posts.Post("/:id/comments/:commentId/like", s.AuthRequired(), s.LikeComment)
	posts.Delete("/:id/comments/:commentId", s.AuthRequired(), s.DeleteComment)
	posts.Get("/:id", s.OptionalAuth(), s.GetPost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)

	users := api.Group("/users")
	users.Get("/", s.GetAllUsers)
	users.Get("/me", s.AuthRequired(), s.GetMyProfile)
	users.Put("/me", s.AuthRequired(), s.UpdateMyProfile)
	users.Get("/by-username/:username", s.OptionalAuth(), s.GetUserByUsername)
	users.Get("/:id/posts", s.OptionalAuth(), s.GetUserPosts)
	users.Get("/:id/replies", s.OptionalAuth(), s.GetUserReplies)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Post("/:id/follow", s.AuthRequired(), s.ToggleFollow)
	users.Get("/:id", s.OptionalAuth(), s.GetUserProfile)

	api.Post("/media", s.AuthRequired(), middleware.RateLimit(s.redis, middleware.Rule{Name: "media", Limit: 20, Window: time.Minute}), s.UploadMedia)

	ws := api.Group("/ws", s.AuthRequired())
	ws.Post("/ticket", s.IssueWSTicket)
	ws.Get("/", s.WebsocketHandler())
	ws.Get("/feed", s.FeedSocketHandler())
}

// NewApp builds the Fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Twitter Clone API",
		BodyLimit: (s.maxUploadMB() + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func (s *Server) maxUploadMB() int {
	if s.config.MediaMaxUploadMB > 0 {
		return s.config.MediaMaxUploadMB
	}
	return media.DefaultMaxUploadMB
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"feedSubscriptions": s.assembler.Len(),
		"sockets":           s.hub.Count() + s.feedHub.Count(),
		"time":              time.Now(),
	})
}

// Start wires cross-instance channels and listens on the configured port.
func (s *Server) Start() error {
	ctx := s.shutdownCtx
	app := s.NewApp()

	if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
		middleware.Logger.Error("notification wiring failed", slog.String("error", err.Error()))
	}
	if err := s.notifier.StartChangeSubscriber(ctx, s.assembler.Invalidate); err != nil {
		middleware.Logger.Error("change subscriber failed", slog.String("error", err.Error()))
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// closing subscriptions first lets feed sockets finish cleanly
	s.assembler.Close()
	for _, h := range []*notifications.Hub{s.hub, s.feedHub} {
		if err := h.Shutdown(ctx); err != nil {
			middleware.Logger.Warn("hub shutdown failed", slog.String("hub", h.Name()), slog.String("error", err.Error()))
		}
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Warn("http shutdown failed", slog.String("error", err.Error()))
		}
	}

	if err := s.events.Close(); err != nil {
		middleware.Logger.Warn("event stream close failed", slog.String("error", err.Error()))
	}
	if err := database.Close(s.db); err != nil {
		middleware.Logger.Warn("database close failed", slog.String("error", err.Error()))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Warn("redis close failed", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
