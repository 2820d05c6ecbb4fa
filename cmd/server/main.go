package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/spendwise/backend/internal/config"
	"github.com/spendwise/backend/internal/handler"
	"github.com/spendwise/backend/internal/middleware"
	"github.com/spendwise/backend/internal/repository"
	"github.com/spendwise/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// Create services
	userSvc := service.NewUserService(repo)
	tutorialSvc := service.NewTutorialService(repo)
	creditSvc := service.NewCreditService(repo)
	referralSvc := service.NewReferralService(repo, cfg.App.WebAppURL)
	adminSvc := service.NewAdminService(repo, creditSvc)

	// Tutorial completions trigger the referral onboarding check
	// (set after construction to avoid a circular dependency)
	tutorialSvc.SetReferralService(referralSvc)

	// Create handlers
	h := handler.New(cfg, userSvc, tutorialSvc, creditSvc, referralSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Health check
	app.Get("/health", h.Health)

	// API routes with bearer-token authentication
	api := app.Group("/api", middleware.Auth(cfg))

	// User
	api.Get("/user/me", h.GetMe)

	// Tutorial
	api.Get("/tutorial", h.GetTutorialProgress)
	api.Post("/tutorial/complete-step", h.CompleteTutorialStep)

	// Credits
	api.Get("/credits", h.GetCredits)
	api.Get("/credits/history", h.GetCreditHistory)
	api.Post("/credits/consume", h.ConsumeCredit)

	// Referrals
	api.Get("/referral/stats", h.GetReferralStats)
	api.Get("/referral/link", h.GetReferralLink)
	api.Post("/referral/apply", h.ApplyReferralCode)

	// Admin routes (auth + allowlist)
	admin := app.Group("/api/admin", middleware.Auth(cfg), middleware.AdminAuth(cfg))
	admin.Post("/users/:user_id/credits/add", adminHandler.AddCredits)
	admin.Get("/settings/referral-bonus", adminHandler.GetReferralBonus)
	admin.Post("/settings/referral-bonus", adminHandler.SetReferralBonus)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		_ = app.Shutdown()
	}()

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
