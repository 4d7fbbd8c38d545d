package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/edubloom/study-planner-api/internal/ai"
	"github.com/edubloom/study-planner-api/internal/handler"
	"github.com/edubloom/study-planner-api/internal/repository"
	"github.com/edubloom/study-planner-api/internal/service"
	"github.com/edubloom/study-planner-api/pkg/cache"
	"github.com/edubloom/study-planner-api/pkg/config"
	"github.com/edubloom/study-planner-api/pkg/database"
	"github.com/edubloom/study-planner-api/pkg/locks"
	"github.com/edubloom/study-planner-api/pkg/logger"
	corsmiddleware "github.com/edubloom/study-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edubloom/study-planner-api/pkg/middleware/requestid"
)

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
	defer db.Close()

	// Redis is optional: without it the due-card cache degrades to a
	// pass-through and plan locking falls back to in-process locks.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	var locker locks.UserLocker
	if redisClient != nil {
		locker = locks.NewRedis(redisClient, cfg.Planner.LockTTL)
	} else {
		locker = locks.NewMemory()
	}

	validate := validator.New()

	subjectRepo := repository.NewSubjectRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	planRepo := repository.NewPlanRepository(db)
	flashcardRepo := repository.NewFlashcardRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	var generator *ai.Client
	if cfg.AI.Enabled {
		generator = ai.NewClient(cfg.AI, logr)
	}

	progressSvc := service.NewProgressService(progressRepo, planRepo, subjectRepo, flashcardRepo, logr, service.ProgressServiceConfig{
		Workers:    cfg.Progress.Workers,
		MaxRetries: cfg.Progress.MaxRetries,
		RetryDelay: cfg.Progress.RetryDelay,
	})
	progressSvc.Start(context.Background())
	defer progressSvc.Stop()

	planCfg := service.PlanServiceConfig{
		Planner:   cfg.Planner,
		AIEnabled: cfg.AI.Enabled,
		AITimeout: cfg.AI.Timeout,
	}
	var planSvc *service.PlanService
	if generator != nil {
		planSvc = service.NewPlanService(subjectRepo, profileRepo, planRepo, generator, progressSvc, metricsSvc, locker, validate, logr, planCfg)
	} else {
		planSvc = service.NewPlanService(subjectRepo, profileRepo, planRepo, nil, progressSvc, metricsSvc, locker, validate, logr, planCfg)
	}
	profileSvc := service.NewProfileService(profileRepo, validate, logr)
	flashcardSvc := service.NewFlashcardService(flashcardRepo, cacheRepo, metricsSvc, validate, logr, cfg.Planner.DueCacheTTL)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(metricsSvc.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	handler.Routes{
		Plan:      handler.NewPlanHandler(planSvc),
		Profile:   handler.NewProfileHandler(profileSvc),
		Flashcard: handler.NewFlashcardHandler(flashcardSvc),
		Progress:  handler.NewProgressHandler(progressSvc),
	}.Register(api)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "ai_enabled", cfg.AI.Enabled)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
