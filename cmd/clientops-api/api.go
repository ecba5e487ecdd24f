// Package main provides the Clientops API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/hartline/clientops/pkg/eventbus"
	"github.com/hartline/clientops/pkg/persistence"
	"github.com/hartline/clientops/pkg/services"
	"github.com/hartline/clientops/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	templateService := services.NewTemplate(a.persistence, a.eventBus, a.logger)
	projectService := services.NewProject(a.persistence, a.eventBus, a.logger)
	boardService := services.NewBoard(a.persistence, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(templateService, projectService, boardService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Clientops API")
	})

	t := app.Group("/templates")
	t.Get("/", handlers.GetTemplates)
	t.Post("/", handlers.CreateTemplate)
	t.Post("/import", handlers.ImportTemplate)
	t.Get("/:id", handlers.GetTemplate)
	t.Patch("/:id", handlers.UpdateTemplate)
	t.Delete("/:id", handlers.DeleteTemplate)
	t.Get("/:id/export", handlers.ExportTemplate)
	t.Post("/:id/stages", handlers.CreateTemplateStage)

	ts := app.Group("/template-stages")
	ts.Patch("/:id", handlers.UpdateTemplateStage)
	ts.Delete("/:id", handlers.DeleteTemplateStage)
	ts.Post("/:id/tasks", handlers.CreateTemplateTask)

	app.Delete("/template-tasks/:id", handlers.DeleteTemplateTask)

	app.Get("/clients/:clientId/projects", handlers.GetClientProjects)

	p := app.Group("/projects")
	p.Post("/", handlers.CreateProject)
	p.Get("/:id", handlers.GetProject)
	p.Patch("/:id", handlers.UpdateProject)
	p.Delete("/:id", handlers.DeleteProject)
	p.Get("/:id/stages", handlers.GetProjectStages)
	p.Post("/:id/stages", handlers.CreateProjectStage)
	p.Post("/:id/stages/reorder", handlers.ReorderProjectStages)
	p.Get("/:id/board", handlers.GetBoard)
	p.Get("/:id/metrics", handlers.GetProjectMetrics)
	p.Get("/:id/tasks", handlers.GetProjectTasks)
	p.Post("/:id/tasks", handlers.CreateTask)

	s := app.Group("/stages")
	s.Patch("/:id", handlers.UpdateProjectStage)
	s.Delete("/:id", handlers.DeleteProjectStage)

	tk := app.Group("/tasks")
	tk.Get("/:id", handlers.GetTask)
	tk.Patch("/:id", handlers.UpdateTask)
	tk.Post("/:id/move", handlers.MoveTask)
	tk.Delete("/:id", handlers.DeleteTask)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
