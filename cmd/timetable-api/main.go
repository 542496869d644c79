package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Semester timetable generation, commit and export for high schools.
// @BasePath /api/v1
// @schemes http https
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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	var redisClient *redis.Client
	if cfg.Timetable.PreviewCacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, previews stay in process", "error", err)
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr.Named("cache"))
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.PreviewTTL, logr, redisClient != nil)

	entryRepo := repository.NewScheduleEntryRepository(db)

	fileStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export directory", "dir", cfg.Export.Dir, "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Export.SigningSecret, cfg.Export.TTL)
	exportSvc := service.NewExportService(entryRepo, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Export.TTL,
	}, logr.Named("export"), export.NewCSVExporter(export.WithBOM()), export.NewPDFExporter())
	exportSvc.StartCleanup(ctx, cfg.Export.CleanupInterval)

	timetableSvc := service.NewTimetableService(service.TimetableRepositories{
		Terms:      repository.NewTermRepository(db),
		Classes:    repository.NewClassRepository(db),
		Subjects:   repository.NewSubjectRepository(db),
		Teachers:   repository.NewTeacherRepository(db),
		Classrooms: repository.NewClassroomRepository(db),
		Slots:      repository.NewSlotTemplateRepository(db),
		Curriculum: repository.NewCurriculumRepository(db),
		Entries:    entryRepo,
		Attendance: repository.NewAttendanceRepository(db),
		Runs:       repository.NewTimetableRunRepository(db),
	}, db, cacheSvc, metricsSvc, exportSvc, validator.New(), logr.Named("timetable"), service.TimetableConfig{
		PreviewTTL:            cfg.Timetable.PreviewTTL,
		GenerationTimeout:     cfg.Timetable.GenerationTimeout,
		DefaultWeeklyCapacity: cfg.Timetable.DefaultWeeklyCapacity,
		IDNamespace:           cfg.Timetable.IDNamespace,
	})

	queue := jobs.NewQueue("timetables", timetableSvc.HandleJob, jobs.QueueConfig{
		Workers:     cfg.Timetable.Workers,
		MaxRetries:  cfg.Timetable.WorkerRetries,
		Logger:      logr.Named("jobs"),
		OnExhausted: timetableSvc.FailJob,
	})
	timetableSvc.UseQueue(queue)
	queue.Start(ctx)
	timetableSvc.RecoverPendingJobs(ctx)

	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Expiry: cfg.JWT.Expiration})

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/timetables/exports/:token", timetableHandler.DownloadExport)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(tokenSvc))

	admins := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	staff := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleTeacher)

	timetables := secured.Group("/timetables")
	timetables.POST("/generate", admins, timetableHandler.Generate)
	timetables.POST("/commit", admins, timetableHandler.Commit)
	timetables.POST("/jobs", admins, timetableHandler.Enqueue)
	timetables.GET("/jobs/:id", admins, timetableHandler.JobStatus)
	timetables.GET("/entries", staff, timetableHandler.ListEntries)
	timetables.GET("/export", staff, timetableHandler.Export)

	secured.GET("/metrics/summary", admins, metricsHandler.Summary)

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
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	queue.Stop()
}
