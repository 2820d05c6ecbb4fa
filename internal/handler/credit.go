package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spendwise/backend/internal/middleware"
	"github.com/spendwise/backend/internal/repository"
)

// GetCredits returns the user's credit balance.
func (h *Handler) GetCredits(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	balance, err := h.creditSvc.GetBalance(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load balance",
		})
	}

	return c.JSON(balance)
}

// GetCreditHistory returns the user's ledger entries, newest first.
func (h *Handler) GetCreditHistory(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	entries, err := h.creditSvc.GetLedger(c.Context(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load credit history",
		})
	}

	return c.JSON(fiber.Map{
		"entries": entries,
	})
}

// ConsumeCredit spends one credit on an AI message.
func (h *Handler) ConsumeCredit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	balance, err := h.creditSvc.Consume(c.Context(), userID, 1)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error": "insufficient credits",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to consume credit",
		})
	}

	return c.JSON(fiber.Map{
		"success":            true,
		"messages_remaining": balance.MessagesRemaining,
	})
}
