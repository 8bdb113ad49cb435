package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/prasetya-dev/shift-ops-api/api/swagger"
	"github.com/prasetya-dev/shift-ops-api/internal/handler"
	"github.com/prasetya-dev/shift-ops-api/internal/middleware"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	"github.com/prasetya-dev/shift-ops-api/internal/repository"
	"github.com/prasetya-dev/shift-ops-api/internal/service"
	"github.com/prasetya-dev/shift-ops-api/pkg/cache"
	"github.com/prasetya-dev/shift-ops-api/pkg/config"
	"github.com/prasetya-dev/shift-ops-api/pkg/database"
	"github.com/prasetya-dev/shift-ops-api/pkg/logger"
	corsmiddleware "github.com/prasetya-dev/shift-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/prasetya-dev/shift-ops-api/pkg/middleware/requestid"
)

// @title Shift Ops API
// @version 0.1.0
// @description Hospital shift scheduling, swap approval and compliance service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	swapRepo := repository.NewSwapRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	criticalUnits := service.NewCriticalUnitSet(cfg.CriticalUnits.Keywords)
	limits := service.NewValidationLimits(cfg)
	thresholds := service.NewWorkloadThresholds(cfg)

	notificationSvc := service.NewNotificationService(notificationRepo, nil, cfg.Notifications, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	validatorSvc := service.NewScheduleValidatorService(shiftRepo, userRepo, limits, criticalUnits, logr)
	shiftSvc := service.NewShiftService(shiftRepo, validatorSvc, logr)
	swapSvc := service.NewSwapService(swapRepo, shiftRepo, userRepo, db, notificationSvc, criticalUnits, logr)
	workloadSvc := service.NewWorkloadService(shiftRepo, thresholds, logr)
	schedulerSvc := service.NewAutoSchedulerService(userRepo, shiftRepo, db, notificationSvc, limits, thresholds, validate, logr,
		service.AutoSchedulerConfig{ProposalTTL: cfg.Scheduler.ProposalTTL})
	complianceSvc := service.NewComplianceService(shiftRepo, userRepo, cacheRepo, limits, cfg.Compliance.CacheTTL, logr)
	metricsSvc := service.NewMetricsService()

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	notificationSvc.Start(dispatchCtx)
	defer func() {
		stopDispatch()
		notificationSvc.Stop()
	}()

	authHandler := handler.NewAuthHandler(authSvc)
	shiftHandler := handler.NewShiftHandler(shiftSvc)
	swapHandler := handler.NewSwapHandler(swapSvc, metricsSvc)
	restrictionHandler := handler.NewRestrictionHandler(validatorSvc, schedulerSvc, workloadSvc, complianceSvc, metricsSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	reviewers := []models.UserRole{models.RoleAdmin, models.RoleSupervisor, models.RoleUnitHead}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/shifts", shiftHandler.List)
	authed.GET("/shifts/:id", shiftHandler.Get)
	authed.POST("/shifts", middleware.RBAC(reviewers...), shiftHandler.Create)
	authed.DELETE("/shifts/:id", middleware.RBAC(reviewers...), shiftHandler.Delete)

	authed.POST("/shift-swap-requests", swapHandler.Create)
	authed.GET("/shift-swap-requests", swapHandler.List)
	authed.GET("/shift-swap-requests/:id", swapHandler.Get)
	authed.PATCH("/shift-swap-requests/:id", swapHandler.Update)
	authed.DELETE("/shift-swap-requests/:id", swapHandler.Delete)

	authed.POST("/shift-restrictions/validate", restrictionHandler.Validate)
	authed.POST("/shift-restrictions/validate-bulk", restrictionHandler.ValidateBulk)
	authed.POST("/shift-restrictions/optimize", middleware.RBAC(reviewers...), restrictionHandler.Optimize)
	authed.POST("/shift-restrictions/optimize/commit", middleware.RBAC(reviewers...), restrictionHandler.CommitOptimize)
	authed.GET("/shift-restrictions/rules", restrictionHandler.Rules)
	authed.GET("/shift-restrictions/workload", restrictionHandler.Workload)
	authed.GET("/shift-restrictions/compliance-report", middleware.RBAC(reviewers...), restrictionHandler.ComplianceReport)

	authed.GET("/notifications", notificationHandler.List)
	authed.PATCH("/notifications/:id/read", notificationHandler.MarkRead)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
