package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/hartline/clientops/pkg/persistence"
	"github.com/hartline/clientops/pkg/services"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case persistence.IsStageProjectMismatch(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("stage_project_mismatch").
			WithDetail("stage belongs to a different project")

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsTemplateNotFound(err):
		return notFound(c, "template not found")

	case persistence.IsTemplateStageNotFound(err):
		return notFound(c, "template stage not found")

	case persistence.IsTemplateTaskNotFound(err):
		return notFound(c, "template task not found")

	case persistence.IsProjectNotFound(err):
		return notFound(c, "project not found")

	case persistence.IsStageNotFound(err):
		return notFound(c, "stage not found")

	case persistence.IsTaskNotFound(err):
		return notFound(c, "task not found")

	case persistence.IsPartialInstantiation(err):
		// The partial clone is user-visible; the client must delete the
		// leftover project before retrying.
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("partial_instantiation").
			WithDetail(err.Error())

		return c.Status(fiber.StatusInternalServerError).JSON(problem)

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
