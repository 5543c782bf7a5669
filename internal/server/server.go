package server

import (
	"backend-territory/internal/auth"
	"backend-territory/internal/claim"
	"backend-territory/internal/config"
	"backend-territory/internal/stream"
	"backend-territory/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Claims   *claim.Service
	Tracking *tracking.Service
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		Claims: claim.NewService(db),
	}
	s.Tracking = tracking.NewService(db, s.Stream, s.Claims, redisClient, tracking.Options{
		Engine:        cfg.Engine(),
		SnapshotTTL:   cfg.SnapshotTTL,
		VerboseEvents: cfg.VerboseEvents,
		ManualTick:    cfg.TickInterval == 0,
	})

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret), s.Cfg.DevTokens)
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, jwtMiddleware)
	claim.RegisterRoutes(s.App.Group("/claims"), s.Claims, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// Close releases what NewServer started.
func (s *Server) Close() {
	s.Stream.Close()
}
