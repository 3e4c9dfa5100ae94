package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-meals-api/api/swagger"
	"github.com/noah-isme/campus-meals-api/internal/handler"
	"github.com/noah-isme/campus-meals-api/internal/middleware"
	"github.com/noah-isme/campus-meals-api/internal/models"
	"github.com/noah-isme/campus-meals-api/internal/repository"
	"github.com/noah-isme/campus-meals-api/internal/service"
	"github.com/noah-isme/campus-meals-api/pkg/cache"
	"github.com/noah-isme/campus-meals-api/pkg/config"
	"github.com/noah-isme/campus-meals-api/pkg/database"
	"github.com/noah-isme/campus-meals-api/pkg/jobs"
	"github.com/noah-isme/campus-meals-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-meals-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-meals-api/pkg/middleware/requestid"
)

// @title Campus Meals API
// @version 1.0.0
// @description Surplus canteen food claims, pickup verification and NGO donations
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, sweep lock runs in single-instance mode", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	tx := database.NewTransactor(db)
	timeout := cfg.Database.OperationTimeout
	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()

	itemRepo := repository.NewFoodItemRepository(db)
	claimRepo := repository.NewFoodClaimRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	lockRepo := repository.NewLockRepository(redisClient, logr)

	notifyQueue := jobs.NewQueue("notifications", jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		Logger:     logr,
	})
	notificationSvc := service.NewNotificationService(notificationRepo, notifyQueue, metricsSvc, logr)
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()

	ledgerSvc := service.NewLedgerService(itemRepo, tx, timeout, logr)
	claimSvc := service.NewClaimService(itemRepo, claimRepo, ledgerSvc, tx, notificationSvc, metricsSvc, validate, logr, service.ClaimConfig{
		ReservationTTL:   cfg.Claims.ReservationTTL,
		CodeMaxAttempts:  cfg.Claims.CodeMaxAttempts,
		OperationTimeout: timeout,
	})
	donationSvc := service.NewDonationService(donationRepo, ledgerSvc, tx, metricsSvc, validate, logr, timeout)
	statsSvc := service.NewStatsService(statsRepo, metricsSvc, logr, timeout)
	foodItemSvc := service.NewFoodItemService(itemRepo, ledgerSvc, tx, auditRepo, validate, logr, timeout)

	var audience string
	if len(cfg.JWT.Audience) > 0 {
		audience = cfg.JWT.Audience[0]
	}
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: audience})

	if cfg.Sweeper.Enabled {
		scheduler := service.NewSweepScheduler(donationSvc, claimSvc, lockRepo, metricsSvc, cfg.Sweeper.Interval, cfg.Sweeper.LockTTL, logr)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	foodItemHandler := handler.NewFoodItemHandler(foodItemSvc)
	claimHandler := handler.NewClaimHandler(claimSvc)
	donationHandler := handler.NewDonationHandler(donationSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	api := r.Group(cfg.APIPrefix)
	api.GET("/stats", statsHandler.Get)
	api.GET("/food-items", foodItemHandler.List)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokenSvc))
	staff := middleware.RequireRoles(models.RoleAdmin)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleStudent)

	items := secured.Group("/food-items")
	items.GET("/mine", staff, foodItemHandler.ListMine)
	items.POST("", staff, foodItemHandler.Create)
	items.PUT("/:id", staff, foodItemHandler.Update)
	items.DELETE("/:id", staff, foodItemHandler.Archive)

	claims := secured.Group("/food-claims")
	claims.POST("", anyRole, claimHandler.Create)
	claims.GET("/mine", anyRole, claimHandler.Mine)
	claims.GET("/active", staff, claimHandler.Active)
	claims.POST("/verify", staff, claimHandler.Verify)
	claims.POST("/:id/complete", staff, middleware.Audit(auditRepo, logr, models.AuditActionClaimComplete, "food_claim"), claimHandler.Complete)
	claims.POST("/:id/cancel", anyRole, claimHandler.Cancel)

	donations := secured.Group("/donations", staff)
	donations.GET("", donationHandler.List)
	donations.GET("/export", donationHandler.Export)
	donations.POST("/sweep", middleware.Audit(auditRepo, logr, models.AuditActionDonationSweep, "food_donation"), donationHandler.Sweep)
	donations.PUT("/:id/reserve", middleware.Audit(auditRepo, logr, models.AuditActionDonationReserve, "food_donation"), donationHandler.Reserve)
	donations.PUT("/:id/collect", middleware.Audit(auditRepo, logr, models.AuditActionDonationCollect, "food_donation"), donationHandler.Collect)

	notifications := secured.Group("/notifications", anyRole)
	notifications.GET("", notificationHandler.List)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
