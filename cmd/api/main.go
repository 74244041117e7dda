package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hakplan/hakplan-api/api/swagger"
	"github.com/hakplan/hakplan-api/internal/handler"
	"github.com/hakplan/hakplan-api/internal/middleware"
	"github.com/hakplan/hakplan-api/internal/models"
	"github.com/hakplan/hakplan-api/internal/repository"
	"github.com/hakplan/hakplan-api/internal/service"
	"github.com/hakplan/hakplan-api/pkg/cache"
	"github.com/hakplan/hakplan-api/pkg/config"
	"github.com/hakplan/hakplan-api/pkg/database"
	"github.com/hakplan/hakplan-api/pkg/logger"
	corsmiddleware "github.com/hakplan/hakplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hakplan/hakplan-api/pkg/middleware/requestid"
)

// @title Hakplan API
// @version 1.0.0
// @description Grade tracking and study planning service
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		if cfg.Schedules.CacheEnabled {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		logr.Sugar().Warnw("redis unavailable, schedule caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	gradeRepo := repository.NewComputedGradeRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	planRepo := repository.NewStudyPlanRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, categoryRepo, validate, logr)
	categoryService := service.NewCategoryService(categoryRepo, subjectRepo, validate, logr)
	gradeService := service.NewGradeService(subjectRepo, categoryRepo, scoreRepo, gradeRepo, validate, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, cacheRepo, cfg.Schedules, metricsService, validate, logr)
	planService := service.NewStudyPlanService(planRepo, validate, logr)
	exportService := service.NewExportService(gradeRepo, logr)

	authHandler := handler.NewAuthHandler(authService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	gradeHandler := handler.NewGradeHandler(gradeService, exportService, metricsService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	planHandler := handler.NewStudyPlanHandler(planService, metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	subjects := authed.Group("/subjects")
	{
		subjects.GET("", subjectHandler.List)
		subjects.GET("/:id", subjectHandler.Get)
		subjects.POST("", adminOnly, subjectHandler.Create)
		subjects.PUT("/:id", adminOnly, subjectHandler.Update)
		subjects.DELETE("/:id", adminOnly, subjectHandler.Delete)

		subjects.GET("/:id/categories", categoryHandler.List)
		subjects.POST("/:id/categories", adminOnly, categoryHandler.Create)
	}

	categories := authed.Group("/categories")
	{
		categories.PUT("/:id", adminOnly, categoryHandler.Update)
		categories.DELETE("/:id", adminOnly, categoryHandler.Delete)
	}

	grades := authed.Group("/grades")
	{
		grades.POST("/preview", gradeHandler.Preview)
		grades.POST("", gradeHandler.Submit)
		grades.GET("/history", gradeHandler.History)
		grades.GET("/history/export", gradeHandler.Export)
		grades.GET("/scores/:subjectId", gradeHandler.Scores)
	}

	schedules := authed.Group("/schedules")
	{
		schedules.GET("", scheduleHandler.List)
		schedules.GET("/upcoming", scheduleHandler.Upcoming)
		schedules.GET("/alerts", scheduleHandler.Alerts)
		schedules.GET("/:id", scheduleHandler.Get)
		schedules.POST("", adminOnly, scheduleHandler.Create)
		schedules.PUT("/:id", adminOnly, scheduleHandler.Update)
		schedules.DELETE("/:id", adminOnly, scheduleHandler.Delete)
	}

	plans := authed.Group("/study-plans")
	{
		plans.POST("/preview", planHandler.Preview)
		plans.POST("", planHandler.Create)
		plans.GET("", planHandler.List)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
