package server

import (
	"log"

	"clash-rulesync/internal/bootstrap"
	"clash-rulesync/internal/config"
	"clash-rulesync/internal/controller"
	"clash-rulesync/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	allowOrigins = "*"
	allowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	allowHeaders = "Content-Type, Authorization"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             4 * 1024 * 1024, // rule documents, not uploads
		DisableStartupMessage: cfg.App.Environment == "production",
	})

	// Middleware
	app.Use(serverutils.CORSHeaders(allowOrigins, allowMethods, allowHeaders))
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: allowHeaders,
		AllowMethods: allowMethods,
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Preflights never need a token.
	app.Use(func(ctx *fiber.Ctx) error {
		if ctx.Method() == fiber.MethodOptions {
			return ctx.SendStatus(fiber.StatusNoContent)
		}
		return ctx.Next()
	})

	app.Use(serverutils.BearerMiddleware(cfg.Edge.ApiSecret, controller.PublicPaths...))

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("[INFO] Rule API is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.RuleController.RegisterRoutes(app)
}
