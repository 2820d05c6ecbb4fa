package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spendwise/backend/internal/middleware"
	"github.com/spendwise/backend/internal/model"
	"github.com/spendwise/backend/internal/service"
)

type CompleteStepRequest struct {
	StepID string `json:"step_id"`
}

// GetTutorialProgress returns the authenticated user's onboarding progress.
func (h *Handler) GetTutorialProgress(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	progress, err := h.tutorialSvc.GetProgress(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load tutorial progress",
		})
	}

	return c.JSON(progress)
}

// CompleteTutorialStep records a step completion and awards its credits.
// Repeat calls for an already completed step return 200 with
// already_completed=true.
func (h *Handler) CompleteTutorialStep(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	var req CompleteStepRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.StepID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "step_id is required",
		})
	}

	result, err := h.tutorialSvc.CompleteStep(c.Context(), userID, model.StepID(req.StepID))
	if err != nil {
		var invalidStep *service.InvalidStepError
		if errors.As(err, &invalidStep) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": invalidStep.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to complete step",
		})
	}

	return c.JSON(result)
}
