package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	"github.com/TjarkGerken/eu-data-tiles/internal/delivery/http/handler"
	"github.com/TjarkGerken/eu-data-tiles/internal/delivery/http/middleware"
)

// Server - HTTP server built on Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	tileHandler  *handler.TileHandler
	layerHandler *handler.LayerHandler
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	tileHandler *handler.TileHandler,
	layerHandler *handler.LayerHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "EU Data Tiles",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		// Uploads carry full source rasters.
		BodyLimit:    512 * 1024 * 1024,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:          app,
		config:       cfg,
		logger:       logger,
		tileHandler:  tileHandler,
		layerHandler: layerHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	api := s.app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Tile serving
	api.Get("/tiles/:layerId/:z/:x/:y", s.tileHandler.GetTile)

	// Layer catalog and ingestion
	api.Post("/layers", s.layerHandler.Upload)
	api.Get("/layers", s.layerHandler.List)
	api.Get("/layers/:layerId", s.layerHandler.Get)
	api.Delete("/layers/:layerId", s.layerHandler.Delete)
}

// Start - blocking listen on the configured address
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown of the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": err.Error(),
			},
		})
	}
}
