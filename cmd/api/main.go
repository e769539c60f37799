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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ai-wes/fhj-content-api/api/swagger"
	"github.com/ai-wes/fhj-content-api/internal/handler"
	"github.com/ai-wes/fhj-content-api/internal/middleware"
	"github.com/ai-wes/fhj-content-api/internal/models"
	"github.com/ai-wes/fhj-content-api/internal/repository"
	"github.com/ai-wes/fhj-content-api/internal/service"
	"github.com/ai-wes/fhj-content-api/pkg/cache"
	"github.com/ai-wes/fhj-content-api/pkg/config"
	"github.com/ai-wes/fhj-content-api/pkg/database"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
	"github.com/ai-wes/fhj-content-api/pkg/export"
	"github.com/ai-wes/fhj-content-api/pkg/jobs"
	"github.com/ai-wes/fhj-content-api/pkg/logger"
	corsmiddleware "github.com/ai-wes/fhj-content-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ai-wes/fhj-content-api/pkg/middleware/requestid"
	"github.com/ai-wes/fhj-content-api/pkg/response"
	"github.com/ai-wes/fhj-content-api/pkg/storage"
)

// @title Future Human Journal Content API
// @version 1.0.0
// @description Editorial backend: articles, content calendar, scheduled publishing
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	articleRepo := repository.NewArticleRepository(db)
	userRepo := repository.NewUserRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	eventStore := repository.NewEventStore(repository.NewRedisKV(redisClient), cfg.Calendar.StorageKey, logr)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "fhj-content-api",
		Audience:           []string{"fhj-editorial-console"},
		SingleSession:      cfg.JWT.SingleSession,
	})

	articleSvc := service.NewArticleService(articleRepo, nil, validate, logr)
	publisherSvc := service.NewPublisherService(eventStore, articleSvc, metricsSvc, logr, cfg.Publisher.Interval)
	articleSvc.SetNotifier(publisherSvc)
	calendarSvc := service.NewCalendarService(eventStore, articleSvc, publisherSvc, validate, logr)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, eventStore, cacheRepo, metricsSvc, logr, cfg.Analytics.CacheTTL)

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(
		articleRepo, eventStore, fileStore, signer,
		export.NewCSVExporter(), export.NewPDFExporter(),
		service.ExportConfig{DownloadPathPrefix: cfg.APIPrefix + "/reports/download"},
		logr,
	)

	reportWorker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc := service.NewReportService(reportRepo, reportQueue, exportSvc, validate, logr, service.ReportServiceConfig{
		ResultTTL:  cfg.Reports.SignedURLTTL,
		MaxRetries: cfg.Reports.WorkerRetries,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	articleHandler := handler.NewArticleHandler(articleSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	publisherHandler := handler.NewPublisherHandler(publisherSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	featureDisabled := func(c *gin.Context) {
		response.Error(c, appErrors.ErrFeatureDisabled)
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
		api.GET("/reports/download/:token", reportHandler.Download)

		authed := api.Group("", middleware.JWT(authSvc))
		{
			authed.POST("/auth/logout", authHandler.Logout)
			authed.POST("/auth/change-password", authHandler.ChangePassword)
			authed.GET("/auth/me", authHandler.Me)

			authed.GET("/articles", articleHandler.List)
			authed.GET("/articles/:id", articleHandler.Get)

			editor := authed.Group("", middleware.RequireRoles(models.RoleEditor))
			{
				editor.POST("/articles", middleware.Audit(userRepo, "create", "article"), articleHandler.Create)
				editor.PUT("/articles/:id", middleware.Audit(userRepo, "update", "article"), articleHandler.Update)
				editor.PUT("/articles/:id/status", middleware.Audit(userRepo, "update_status", "article"), articleHandler.UpdateStatus)
				editor.DELETE("/articles/:id", middleware.Audit(userRepo, "delete", "article"), articleHandler.Delete)

				editor.POST("/calendar/events", middleware.Audit(userRepo, "create", "calendar_event"), calendarHandler.Create)
				editor.PUT("/calendar/events/:id", middleware.Audit(userRepo, "update", "calendar_event"), calendarHandler.Update)
				editor.DELETE("/calendar/events/:id", middleware.Audit(userRepo, "delete", "calendar_event"), calendarHandler.Delete)
				editor.POST("/calendar/schedule", middleware.Audit(userRepo, "schedule", "calendar_event"), calendarHandler.Schedule)
			}

			authed.GET("/calendar/events", calendarHandler.List)

			admin := authed.Group("", middleware.RequireRoles(models.RoleAdmin))
			{
				admin.GET("/publisher/status", publisherHandler.Status)
				admin.POST("/publisher/run", publisherHandler.RunTick)
			}

			if cfg.Analytics.Enabled {
				authed.GET("/analytics/summary", analyticsHandler.Summary)
				authed.GET("/analytics/cadence", analyticsHandler.Cadence)
			} else {
				authed.GET("/analytics/summary", featureDisabled)
				authed.GET("/analytics/cadence", featureDisabled)
			}

			if cfg.Reports.Enabled {
				authed.POST("/reports", middleware.RequireRoles(models.RoleEditor), reportHandler.Create)
				authed.GET("/reports/:id", reportHandler.Status)
			} else {
				authed.POST("/reports", featureDisabled)
				authed.GET("/reports/:id", featureDisabled)
			}
		}
	}

	if cfg.Publisher.Enabled {
		publisherSvc.Start(ctx)
	}
	if cfg.Reports.Enabled {
		reportQueue.Start(ctx)
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}

	if cfg.Publisher.Enabled {
		publisherSvc.Stop()
	}
	if cfg.Reports.Enabled {
		reportQueue.Stop()
	}
	logr.Sugar().Infow("server stopped")
}
