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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-portal-api/api/swagger"
	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/internal/router"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/migrations"
	"github.com/noah-isme/school-portal-api/pkg/cache"
	"github.com/noah-isme/school-portal-api/pkg/config"
	"github.com/noah-isme/school-portal-api/pkg/database"
	"github.com/noah-isme/school-portal-api/pkg/jobs"
	"github.com/noah-isme/school-portal-api/pkg/logger"
	"github.com/noah-isme/school-portal-api/pkg/observability"
	"github.com/noah-isme/school-portal-api/pkg/storage"
)

// @title School Portal API
// @version 1.0.0
// @description Session-aware school management API: attendance, fees, content and dashboards.
// @BasePath /
// @schemes http https

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server stopped", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Sentry.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, migrations.FS, "up"); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logr.Info("migrations applied")
	}

	metrics := service.NewMetricsService()
	validator := service.NewValidator()

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	parentRepo := repository.NewParentRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	markRepo := repository.NewMarkRepository(db)
	websiteRepo := repository.NewWebsiteRepository(db)
	galleryRepo := repository.NewGalleryRepository(db)
	exportRepo := repository.NewExportJobRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	authSvc := service.NewAuthService(userRepo, validator, metrics, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
	})
	sessions := service.NewSessionService(authSvc, userRepo, logr)
	userSvc := service.NewUserService(userRepo, validator, logr)
	studentSvc := service.NewStudentService(studentRepo, validator, cacheSvc, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, studentRepo, validator, cacheSvc, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, validator, cacheSvc, metrics, logr)
	feeSvc := service.NewFeeService(feeRepo, studentRepo, validator, cacheSvc, metrics, logr, service.FeeConfig{
		ReminderCooldown: cfg.Reminders.Cooldown,
		CurrencySymbol:   cfg.Reminders.CurrencySymbol,
	})
	announcementSvc := service.NewAnnouncementService(announcementRepo, validator, cacheSvc, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:      studentRepo,
		Users:         userRepo,
		Parents:       parentRepo,
		Attendance:    attendanceRepo,
		Marks:         markRepo,
		Fees:          feeRepo,
		Announcements: announcementRepo,
		Timetable:     timetableRepo,
		Cache:         cacheSvc,
		Logger:        logr,
		Config:        service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		return fmt.Errorf("init upload storage: %w", err)
	}
	uploadSvc := service.NewUploadService(uploadStore, service.UploadServiceConfig{
		MaxFileSize:   cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:  cfg.Uploads.AllowedMIMEs,
		PublicBaseURL: cfg.Uploads.PublicBaseURL,
	}, logr)
	gallerySvc := service.NewGalleryService(galleryRepo, uploadSvc, validator, cacheSvc, logr)
	websiteSvc := service.NewWebsiteService(websiteRepo, announcementRepo, galleryRepo, validator, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	worker := service.NewExportWorker(exportRepo, attendanceRepo, exportStore, nil, metrics, logr)
	exportQueue := jobs.NewQueue[string]("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	exportQueue.OnFailure(worker.OnFailure)
	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	exportSvc := service.NewExportService(exportRepo, exportQueue, exportStore, signer, validator, metrics, logr, service.ExportServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	exportSvc.RecoverPending(ctx)
	exportSvc.StartCleanup(ctx)

	engine := router.New(router.Options{
		Logger:         logr,
		Metrics:        metrics,
		Sessions:       sessions,
		CookieName:     cfg.Session.CookieName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Handlers: router.Handlers{
			Auth: handler.NewAuthHandler(authSvc, handler.CookieSettings{
				Name:   cfg.Session.CookieName,
				Secure: cfg.Session.Secure,
				Domain: cfg.Session.Domain,
			}),
			Users:         handler.NewUserHandler(userSvc),
			Registration:  handler.NewRegistrationHandler(registrationSvc),
			Students:      handler.NewStudentHandler(studentSvc),
			Attendance:    handler.NewAttendanceHandler(attendanceSvc),
			Payments:      handler.NewPaymentHandler(feeSvc),
			Announcements: handler.NewAnnouncementHandler(announcementSvc),
			Media:         handler.NewMediaHandler(uploadSvc, gallerySvc),
			Website:       handler.NewWebsiteHandler(websiteSvc),
			Dashboards:    handler.NewDashboardHandler(dashboardSvc),
			Exports:       handler.NewExportHandler(exportSvc),
			Health:        handler.NewHealthHandler(metrics, healthChecks(db, redisClient)),
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func healthChecks(db *sqlx.DB, client *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"database": db}
	if client != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return checks
}
