// Package web provides HTTP handlers and REST API endpoints for the
// operations engine.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/services"
)

type APIHandlers struct {
	templateService *services.Template
	projectService  *services.Project
	boardService    *services.Board
	validator       *validator.Validate
}

func NewAPIHandlers(
	templateService *services.Template,
	projectService *services.Project,
	boardService *services.Board,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		templateService: templateService,
		projectService:  projectService,
		boardService:    boardService,
		validator:       validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.templateService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Clientops API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Clientops API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Template endpoints

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	templates, err := h.templateService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(templates)
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	details, err := h.templateService.FetchDetails(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(details)
}

func (h *APIHandlers) CreateTemplate(c fiber.Ctx) error {
	var req CreateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.templateService.Create(c.Context(), &models.WorkflowTemplate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	var req services.UpdateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.templateService.Update(c.Context(), id, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	if err := h.templateService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ImportTemplate(c fiber.Ctx) error {
	details, err := h.templateService.Import(c.Context(), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(details)
}

func (h *APIHandlers) ExportTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	doc, err := h.templateService.Export(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) CreateTemplateStage(c fiber.Ctx) error {
	templateID := c.Params("id")
	if templateID == "" {
		return badRequest(c, "Template ID is required")
	}

	var req CreateTemplateStageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	stage, err := h.templateService.CreateStage(c.Context(), templateID, req.Name, req.Position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(stage)
}

func (h *APIHandlers) UpdateTemplateStage(c fiber.Ctx) error {
	stageID := c.Params("id")
	if stageID == "" {
		return badRequest(c, "Stage ID is required")
	}

	var req services.UpdateStageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	stage, err := h.templateService.UpdateStage(c.Context(), stageID, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stage)
}

func (h *APIHandlers) DeleteTemplateStage(c fiber.Ctx) error {
	stageID := c.Params("id")
	if stageID == "" {
		return badRequest(c, "Stage ID is required")
	}

	if err := h.templateService.DeleteStage(c.Context(), stageID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateTemplateTask(c fiber.Ctx) error {
	stageID := c.Params("id")
	if stageID == "" {
		return badRequest(c, "Stage ID is required")
	}

	var req CreateTemplateTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.templateService.CreateTask(c.Context(), stageID, req.Title, req.Position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *APIHandlers) DeleteTemplateTask(c fiber.Ctx) error {
	taskID := c.Params("id")
	if taskID == "" {
		return badRequest(c, "Task ID is required")
	}

	if err := h.templateService.DeleteTask(c.Context(), taskID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Project endpoints

func (h *APIHandlers) GetClientProjects(c fiber.Ctx) error {
	clientID := c.Params("clientId")
	if clientID == "" {
		return badRequest(c, "Client ID is required")
	}

	projects, err := h.projectService.ListByClient(c.Context(), clientID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(projects)
}

func (h *APIHandlers) GetProject(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Project ID is required")
	}

	project, err := h.projectService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(project)
}

func (h *APIHandlers) CreateProject(c fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	project, err := h.projectService.Create(c.Context(), services.CreateProjectRequest{
		ClientID:   req.ClientID,
		TemplateID: req.TemplateID,
		Name:       req.Name,
		Type:       req.Type,
		StartDate:  req.StartDate,
		TargetDate: req.TargetDate,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

func (h *APIHandlers) UpdateProject(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Project ID is required")
	}

	var req services.UpdateProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	project, err := h.projectService.Update(c.Context(), id, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(project)
}

func (h *APIHandlers) DeleteProject(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Project ID is required")
	}

	if err := h.projectService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Stage endpoints

func (h *APIHandlers) GetProjectStages(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	stages, err := h.projectService.Stages(c.Context(), projectID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stages)
}

func (h *APIHandlers) CreateProjectStage(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	var req CreateProjectStageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	stage, err := h.projectService.CreateStage(c.Context(), projectID, req.Name, req.Position, req.IsTerminal)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(stage)
}

func (h *APIHandlers) ReorderProjectStages(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	var req ReorderStagesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	stages, err := h.projectService.ReorderStages(c.Context(), projectID, req.StageIDs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stages)
}

func (h *APIHandlers) UpdateProjectStage(c fiber.Ctx) error {
	stageID := c.Params("id")
	if stageID == "" {
		return badRequest(c, "Stage ID is required")
	}

	var req services.UpdateProjectStageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	stage, err := h.projectService.UpdateStage(c.Context(), stageID, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stage)
}

func (h *APIHandlers) DeleteProjectStage(c fiber.Ctx) error {
	stageID := c.Params("id")
	if stageID == "" {
		return badRequest(c, "Stage ID is required")
	}

	if err := h.projectService.DeleteStage(c.Context(), stageID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Board endpoints

func (h *APIHandlers) GetBoard(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	view, err := h.boardService.View(c.Context(), projectID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) GetProjectMetrics(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	metrics, err := h.boardService.Metrics(c.Context(), projectID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(metrics)
}

func (h *APIHandlers) GetProjectTasks(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	tasks, err := h.projectService.Tasks(c.Context(), projectID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(tasks)
}

func (h *APIHandlers) CreateTask(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	var req services.CreateTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.boardService.CreateTask(c.Context(), projectID, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *APIHandlers) GetTask(c fiber.Ctx) error {
	taskID := c.Params("id")
	if taskID == "" {
		return badRequest(c, "Task ID is required")
	}

	task, err := h.boardService.FetchTask(c.Context(), taskID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(task)
}

func (h *APIHandlers) UpdateTask(c fiber.Ctx) error {
	taskID := c.Params("id")
	if taskID == "" {
		return badRequest(c, "Task ID is required")
	}

	var req services.UpdateTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.boardService.UpdateTask(c.Context(), taskID, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(task)
}

func (h *APIHandlers) MoveTask(c fiber.Ctx) error {
	taskID := c.Params("id")
	if taskID == "" {
		return badRequest(c, "Task ID is required")
	}

	var req MoveTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.boardService.MoveTask(c.Context(), taskID, req.StageID, req.Position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(task)
}

func (h *APIHandlers) DeleteTask(c fiber.Ctx) error {
	taskID := c.Params("id")
	if taskID == "" {
		return badRequest(c, "Task ID is required")
	}

	if err := h.boardService.DeleteTask(c.Context(), taskID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
