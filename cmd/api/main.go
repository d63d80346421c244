package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"chiro-intake-api/internal/config"
	"chiro-intake-api/internal/db"
	apihttp "chiro-intake-api/internal/http"
	"chiro-intake-api/internal/line"
	"chiro-intake-api/internal/llm"
	"chiro-intake-api/internal/repository"
	"chiro-intake-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.InitSchema(ctx, pool); err != nil {
		logger.Fatal("db schema init", zap.Error(err))
	}

	intakeRepo := repository.NewPgIntakeRepository(pool)
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	var (
		llmBudget   service.MonthlyBudget
		lineBudget  service.MonthlyBudget
		tokenStore  service.RefreshTokenStore
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			llmBudget = service.NewRedisMonthlyBudget(redisClient, "llm:budget:", service.LLMCostPerCallYen, cfg.LLMMonthlyLimitYen, true)
			lineBudget = service.NewRedisMonthlyBudget(redisClient, "line:budget:", service.LineCostPerMessageYen, cfg.LineBudgetYen, false)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	if llmBudget == nil {
		llmBudget = service.NewMemoryMonthlyBudget(service.LLMCostPerCallYen, cfg.LLMMonthlyLimitYen)
	}
	if lineBudget == nil {
		lineBudget = service.NewMemoryMonthlyBudget(service.LineCostPerMessageYen, cfg.LineBudgetYen)
	}

	var lineSender line.Sender = line.NewDisabledSender("line channel token not configured")
	if cfg.LineChannelToken != "" {
		sender, err := line.NewHTTPSender(cfg.LineChannelToken)
		if err != nil {
			logger.Warn("line sender init failed", zap.Error(err))
		} else {
			lineSender = sender
		}
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	if cfg.AdminEmail == "" || cfg.AdminPasswordHash == "" {
		logger.Warn("admin credentials not configured")
	}

	aiTextSvc := service.NewAITextService(logger, llmClient, llmBudget)
	intakeSvc := service.NewIntakeService(logger, intakeRepo, aiTextSvc, cfg.LineSendEnabled)
	linkSvc := service.NewLinkService(logger, intakeRepo, lineSender, lineBudget, cfg.LineSendEnabled)
	authSvc := service.NewAdminAuthService(logger, cfg.AdminEmail, cfg.AdminPasswordHash, jwtSvc)

	intakeHandler := apihttp.NewIntakeHandler(logger, intakeSvc)
	adminHandler := apihttp.NewAdminHandler(logger, intakeSvc, linkSvc)
	webhookHandler := apihttp.NewWebhookHandler(logger, linkSvc)
	authHandler := apihttp.NewAuthHandler(logger, authSvc)

	router := apihttp.NewRouter(
		logger,
		cfg.CORSOrigins,
		intakeHandler,
		adminHandler,
		webhookHandler,
		authHandler,
		jwtSvc,
		func(ctx context.Context) error { return db.Ping(ctx, pool) },
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
