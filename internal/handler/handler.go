package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spendwise/backend/internal/config"
	"github.com/spendwise/backend/internal/service"
)

type Handler struct {
	cfg         *config.Config
	userSvc     *service.UserService
	tutorialSvc *service.TutorialService
	creditSvc   *service.CreditService
	referralSvc *service.ReferralService
}

func New(
	cfg *config.Config,
	userSvc *service.UserService,
	tutorialSvc *service.TutorialService,
	creditSvc *service.CreditService,
	referralSvc *service.ReferralService,
) *Handler {
	return &Handler{
		cfg:         cfg,
		userSvc:     userSvc,
		tutorialSvc: tutorialSvc,
		creditSvc:   creditSvc,
		referralSvc: referralSvc,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
