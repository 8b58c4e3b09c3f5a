package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/expotoworld/expotoworld-sub002/config"
	"github.com/expotoworld/expotoworld-sub002/db"
	"github.com/expotoworld/expotoworld-sub002/internal/auth/handler"
	"github.com/expotoworld/expotoworld-sub002/internal/auth/messaging"
	repo "github.com/expotoworld/expotoworld-sub002/internal/auth/repository/postgres"
	"github.com/expotoworld/expotoworld-sub002/internal/auth/service"
	"github.com/expotoworld/expotoworld-sub002/internal/logger"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}

	dbPool, err := db.NewPostgresPool(context.Background(), cfg.DBURL)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	verificationRepo := repo.NewVerificationRepository(dbPool)
	rateLimitRepo := repo.NewRateLimitRepository(dbPool)
	refreshRepo := repo.NewRefreshTokenRepository(dbPool)
	accountRepo := repo.NewAccountRepository(dbPool)

	hasher := service.NewSecretHasher()
	limiter := service.NewRateLimiter(rateLimitRepo, cfg.RateLimitPerHour, cfg.RateLimitWindowHours)
	messenger := messaging.NewMux(
		messaging.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom),
		messaging.NewSMSSender(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSenderID, cfg.SMSDryRun),
	)

	verificationService := service.NewVerificationService(verificationRepo, accountRepo,
		limiter, hasher, messenger, cfg.CodeTTLMinutes, cfg.MaxCodeAttempts, cfg.DispatchTimeoutSec)
	identityService := service.NewIdentityService(accountRepo)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.AccessExpiryMin, cfg.RefreshExpiryDays)
	authService := service.NewAuthService(verificationService, identityService,
		accountRepo, refreshRepo, tokenService, hasher)

	authHandler := handler.NewAuthHandler(authService)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
