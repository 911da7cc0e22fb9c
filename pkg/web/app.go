package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// NewApp wires the handlers into a fiber application with the standard
// middleware stack and route layout.
func NewApp(handlers *APIHandlers) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("AgentFlow API")
	})

	agents := app.Group("/agents")
	agents.Get("/", handlers.GetAgents)
	agents.Post("/", handlers.CreateAgent)
	agents.Get("/:id", handlers.GetAgent)
	agents.Patch("/:id", handlers.UpdateAgent)
	agents.Delete("/:id", handlers.DeleteAgent)
	agents.Post("/:id/trigger", handlers.TriggerAgent)
	agents.Get("/:id/executions", handlers.GetAgentExecutions)

	app.Post("/workflows/validate", handlers.ValidateWorkflow)
	app.Get("/executions/:id", handlers.GetExecution)
	app.Get("/health", handlers.HealthCheck)

	return app
}
