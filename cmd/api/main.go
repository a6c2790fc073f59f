package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/emu-ics/report-portal-api/api/swagger"
	"github.com/emu-ics/report-portal-api/internal/handler"
	"github.com/emu-ics/report-portal-api/internal/middleware"
	"github.com/emu-ics/report-portal-api/internal/models"
	"github.com/emu-ics/report-portal-api/internal/repository"
	"github.com/emu-ics/report-portal-api/internal/service"
	"github.com/emu-ics/report-portal-api/pkg/cache"
	"github.com/emu-ics/report-portal-api/pkg/config"
	"github.com/emu-ics/report-portal-api/pkg/database"
	"github.com/emu-ics/report-portal-api/pkg/logger"
	corsmiddleware "github.com/emu-ics/report-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/emu-ics/report-portal-api/pkg/middleware/requestid"
)

// @title Campus Report Portal API
// @version 1.0.0
// @description Institutional data collection portal: report assignments, tabular submissions and review workflow
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
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	reportTypeRepo := repository.NewReportTypeRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	reportTableRepo := repository.NewReportTableRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metrics := service.NewMetricsService()

	schemas := service.NewSchemaService(reportTypeRepo, logr)
	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := schemas.Load(loadCtx); err != nil {
		cancel()
		logr.Sugar().Fatalw("schema registry load failed", "error", err)
	}
	cancel()

	templates := service.NewTemplateService()
	authSvc := service.NewAuthService(userRepo, auditRepo, cfg.JWT, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, schemas, auditRepo, logr)
	submissionSvc := service.NewSubmissionService(
		submissionRepo, assignmentSvc, schemas, reportTableRepo,
		cacheRepo, auditRepo, metrics, logr, cfg.Dashboard.CacheTTL)
	reviewSvc := service.NewReviewService(submissionRepo, reportTableRepo, schemas, cacheRepo, auditRepo, metrics, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	reportTypeHandler := handler.NewReportTypeHandler(schemas, templates)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/report-types", reportTypeHandler.List)
		authed.GET("/report-types/:id/template", reportTypeHandler.Template)
		authed.GET("/report-types/:id/export", submissionHandler.ExportStoredCSV)

		authed.GET("/assignments", assignmentHandler.List)
		authed.POST("/assignments", middleware.RequireRoles(models.RoleAdmin), assignmentHandler.Create)
		authed.DELETE("/assignments/:id", middleware.RequireRoles(models.RoleAdmin), assignmentHandler.Deactivate)

		authed.POST("/submissions", middleware.RequireRoles(models.RoleOffice, models.RoleAdmin), submissionHandler.Create)
		authed.GET("/submissions", submissionHandler.List)
		authed.GET("/submissions/:id", submissionHandler.Details)
		authed.GET("/submissions/:id/pdf", submissionHandler.ExportPDF)
		authed.POST("/submissions/:id/review", middleware.RequireRoles(models.RoleAdmin), reviewHandler.Review)

		if cfg.Dashboard.Enabled {
			authed.GET("/dashboard/summary", middleware.RequireRoles(models.RoleAdmin), submissionHandler.Dashboard)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
