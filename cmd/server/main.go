package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/config"
	"github.com/Abrahambaraka/Feza-pay/internal/events"
	"github.com/Abrahambaraka/Feza-pay/internal/flutterwave"
	"github.com/Abrahambaraka/Feza-pay/internal/handler"
	"github.com/Abrahambaraka/Feza-pay/internal/middleware"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/redisx"
	"github.com/Abrahambaraka/Feza-pay/internal/repository"
	"github.com/Abrahambaraka/Feza-pay/internal/service"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET must be set")
	}

	// Database connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	// Redis connection
	redis, err := redisx.NewClient(cfg.RedisAddr, "", 0)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	// Provider client: one instance shared by the charge and issuing flows.
	flw := flutterwave.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecret, logger)

	// Repositories and read-model caches
	userRepo := repository.NewUserRepository(db)
	cardRepo := repository.NewCardRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	kycRepo := repository.NewKYCRepository(db)

	cardView := redisx.NewViewCache[[]models.Card](redis.Client, 5*time.Minute, logger)
	txView := redisx.NewViewCache[[]models.Transaction](redis.Client, 5*time.Minute, logger)

	// Services
	ledger := service.NewLedgerService(db, cardRepo, txRepo, cardView, txView, logger)
	authSvc := service.NewAuthService(userRepo, logger)
	kycSvc := service.NewKYCService(kycRepo, logger)
	payinSvc := service.NewPayinService(flw, ledger, logger)
	issuingSvc := service.NewIssuingService(flw, ledger, kycSvc, logger)

	// Webhook pipeline: verified payloads go onto a stream, the consumer
	// settles them against the ledger out-of-band.
	publisher := events.NewPublisher(redis.Client)
	dedup := redisx.NewEventDedup(redis.Client, 24*time.Hour)
	processor := service.NewWebhookProcessor(cfg.WebhookHash, !cfg.IsProduction(), ledger, dedup, logger)
	processor.SetSuccessHook(func(ctx context.Context, tx *models.Transaction) {
		err := publisher.Publish(ctx, events.WalletEventsStream, events.TransactionUpdated,
			events.TransactionUpdatedEvent{
				TransactionID: tx.ID,
				UserID:        tx.UserID,
				Reference:     tx.Reference,
				Status:        tx.Status,
			})
		if err != nil {
			logger.Warn("failed to publish wallet event", zap.Error(err))
		}
	})

	subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
		Group:    "fezapay-settlement",
		Consumer: "server-1",
		Stream:   events.GatewayEventsStream,
		Handler:  gatewayEventHandler(processor),
		Logger:   logger,
	})
	go func() {
		if err := subscriber.Start(context.Background()); err != nil && err != context.Canceled {
			logger.Error("settlement subscriber stopped", zap.Error(err))
		}
	}()

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, logger)
	payinHandler := handler.NewPayinHandler(payinSvc, logger)
	issuingHandler := handler.NewIssuingHandler(issuingSvc, logger)
	webhookHandler := handler.NewWebhookHandler(processor, publisher, logger)
	userHandler := handler.NewUserHandler(userRepo, ledger, logger)
	kycHandler := handler.NewKYCHandler(kycSvc, logger)

	// Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := router.Group("/v1/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Provider callbacks authenticate with verif-hash, not a bearer token.
	router.POST("/v1/webhooks/flutterwave", webhookHandler.HandleGatewayWebhook)

	payin := router.Group("/v1/payin", middleware.AuthMiddleware())
	{
		payin.POST("/mobile-money", payinHandler.InitiateDeposit)
		payin.GET("/verify/:transactionId", payinHandler.VerifyDeposit)
	}

	issuing := router.Group("/v1/issuing/cards", middleware.AuthMiddleware())
	{
		issuing.POST("", issuingHandler.IssueCard)
		issuing.GET("/:cardId", issuingHandler.GetCard)
		issuing.POST("/:cardId/freeze", issuingHandler.FreezeCard)
		issuing.POST("/:cardId/unfreeze", issuingHandler.UnfreezeCard)
		issuing.POST("/:cardId/fund", issuingHandler.FundCard)
	}

	me := router.Group("/v1/users/me", middleware.AuthMiddleware())
	{
		me.GET("", userHandler.GetMe)
		me.PATCH("", userHandler.UpdateMe)
		me.GET("/cards", userHandler.ListCards)
		me.GET("/transactions", userHandler.ListTransactions)
	}

	kyc := router.Group("/v1/kyc", middleware.AuthMiddleware())
	{
		kyc.POST("/verify", kycHandler.Submit)
		kyc.GET("/status", kycHandler.Status)
	}

	logger.Info("fezapay server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// gatewayEventHandler adapts the stream consumer to the webhook processor.
// Event data crosses the stream as JSON, so the payload is recovered by a
// marshal round-trip before dispatch.
func gatewayEventHandler(processor *service.WebhookProcessor) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		raw, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("failed to re-encode event data: %w", err)
		}
		var payload events.GatewayEventReceivedEvent
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("failed to decode gateway event: %w", err)
		}
		return processor.Dispatch(ctx, payload.Body)
	}
}
