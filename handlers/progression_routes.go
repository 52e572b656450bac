package handlers

import (
	"errors"

	"progreso/models"
	"progreso/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// statusForError maps domain errors onto HTTP statuses.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound, "not found"
	case errors.Is(err, models.ErrNotOwner):
		return fiber.StatusForbidden, "not yours"
	case errors.Is(err, models.ErrAlreadyCompleted):
		return fiber.StatusConflict, "mission already completed"
	case errors.Is(err, models.ErrInsufficientCoins):
		return fiber.StatusConflict, "not enough coins"
	case errors.Is(err, models.ErrOnboardingStep):
		return fiber.StatusConflict, "onboarding step not available"
	case errors.Is(err, models.ErrMissingAPIKey):
		return fiber.StatusServiceUnavailable, "generation not configured"
	case errors.Is(err, models.ErrGeneration), errors.Is(err, models.ErrInvalidShape):
		return fiber.StatusBadGateway, "generation failed, try again or use defaults"
	default:
		return fiber.StatusInternalServerError, "internal error"
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	status, msg := statusForError(err)
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func SetupProgressionRoutes(app *fiber.App, auth fiber.Handler, progression *services.ProgressionService) {
	secured := app.Group("/", auth)

	secured.Post("/habits/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		snap, err := progression.CompleteHabit(userID, c.Params("id"))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(snap)
	})

	secured.Post("/habits/:id/fail", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		snap, err := progression.FailHabit(userID, c.Params("id"))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(snap)
	})

	secured.Post("/missions/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		snap, err := progression.CompleteMission(userID, c.Params("id"))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(snap)
	})
}
