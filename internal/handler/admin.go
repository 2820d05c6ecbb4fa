package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spendwise/backend/internal/service"
)

type AdminHandler struct {
	adminSvc *service.AdminService
}

func NewAdminHandler(adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

type AddCreditsRequest struct {
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

// AddCredits grants credits to a user as a manual adjustment.
func (h *AdminHandler) AddCredits(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil || userID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	var req AddCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	entry, err := h.adminSvc.GrantCredits(c.Context(), userID, req.Amount, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "amount must be positive",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to grant credits",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"balance_after": entry.BalanceAfter,
	})
}

func (h *AdminHandler) GetReferralBonus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"referral_bonus_messages": h.adminSvc.GetReferralBonus(c.Context()),
	})
}

type SetReferralBonusRequest struct {
	Messages int `json:"messages"`
}

func (h *AdminHandler) SetReferralBonus(c *fiber.Ctx) error {
	var req SetReferralBonusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.adminSvc.SetReferralBonus(c.Context(), req.Messages); err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "messages must be positive",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update setting",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
