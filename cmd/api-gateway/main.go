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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/siliya-electrical-api/api/swagger"
	"github.com/noah-isme/siliya-electrical-api/internal/repository"
	"github.com/noah-isme/siliya-electrical-api/internal/service"
	"github.com/noah-isme/siliya-electrical-api/pkg/cache"
	"github.com/noah-isme/siliya-electrical-api/pkg/config"
	"github.com/noah-isme/siliya-electrical-api/pkg/database"
	"github.com/noah-isme/siliya-electrical-api/pkg/jobs"
	"github.com/noah-isme/siliya-electrical-api/pkg/logger"
	"github.com/noah-isme/siliya-electrical-api/pkg/mailer"
	"github.com/noah-isme/siliya-electrical-api/pkg/storage"
)

// @title Siliya Electrical API
// @version 1.0.0
// @description Repair tickets, training courses, enrollments and payments for an electrical repair shop.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		logr.Info("redis cache disabled")
	case err != nil:
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
	default:
		defer redisClient.Close()
	}

	app, err := buildApp(cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}

	app.queue.Start(ctx)
	if n, err := app.notifications.ReplayPending(ctx); err != nil {
		logr.Warn("failed to replay pending notifications", zap.Error(err))
	} else if n > 0 {
		logr.Info("replayed pending notifications", zap.Int("count", n))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	app.queue.Stop()
}

type application struct {
	db            *sqlx.DB
	users         *repository.UserRepository
	metrics       *service.MetricsService
	queue         *jobs.Queue
	notifications *service.NotificationService
	auth          *service.AuthService
	userSvc       *service.UserService
	transitions   *service.StatusTransitionService
	repairs       *service.RepairService
	enrollments   *service.EnrollmentService
	payments      *service.PaymentService
	courses       *service.CourseService
	messages      *service.MessageService
	dashboard     *service.DashboardService
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	repairRepo := repository.NewRepairRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	renderer, err := mailer.NewRenderer(cfg.Mail.FromName, cfg.Mail.FrontendURL)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	var outbound mailer.Mailer = mailer.NewLogMailer(logr)
	if cfg.Mail.SendGridAPIKey != "" {
		outbound = mailer.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	} else {
		logr.Warn("SENDGRID_API_KEY not set, emails are logged instead of sent")
	}

	worker := service.NewNotificationWorker(notificationRepo, renderer, outbound, metrics, logr).
		WithSendTimeout(cfg.Notifications.SendTimeout)
	queue := jobs.NewQueue("notifications", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		OnDrop:     worker.OnDrop,
	})
	notifications := service.NewNotificationService(notificationRepo, queue, metrics, logr)

	photos, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init photo storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	transitions := service.NewStatusTransitionService(service.StatusTransitionParams{
		Repairs:     repairRepo,
		Enrollments: enrollmentRepo,
		Payments:    paymentRepo,
		Notifier:    notifications,
		Cache:       cacheSvc,
		Audit:       userRepo,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
	})

	return &application{
		db:            db,
		users:         userRepo,
		metrics:       metrics,
		queue:         queue,
		notifications: notifications,
		auth: service.NewAuthService(userRepo, notifications, validate, logr, service.AuthConfig{
			AccessTokenSecret:  cfg.JWT.Secret,
			AccessTokenExpiry:  cfg.JWT.Expiration,
			RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
			Issuer:             cfg.JWT.Issuer,
			ResetTokenTTL:      cfg.PasswordReset.TokenTTL,
			FrontendURL:        cfg.Mail.FrontendURL,
		}),
		userSvc:     service.NewUserService(userRepo, cacheSvc, validate, logr),
		transitions: transitions,
		repairs: service.NewRepairService(service.RepairServiceParams{
			Repo:        repairRepo,
			Storage:     photos,
			Signer:      signer,
			Transitions: transitions,
			Notifier:    notifications,
			Cache:       cacheSvc,
			Audit:       userRepo,
			Validator:   validate,
			Logger:      logr,
			Config: service.RepairConfig{
				MaxPhotos:      cfg.Uploads.MaxPhotos,
				MaxFileSize:    cfg.Uploads.MaxFileSizeBytes,
				AllowedMIMEs:   cfg.Uploads.AllowedMIMEs,
				PhotoURLPrefix: cfg.APIPrefix,
			},
		}),
		enrollments: service.NewEnrollmentService(service.EnrollmentServiceParams{
			Repo:      enrollmentRepo,
			Courses:   courseRepo,
			Admins:    userRepo,
			Notifier:  notifications,
			Cache:     cacheSvc,
			Audit:     userRepo,
			Validator: validate,
			Logger:    logr,
		}),
		payments: service.NewPaymentService(paymentRepo, userRepo, notifications, cacheSvc, userRepo, validate, logr),
		courses:  service.NewCourseService(courseRepo, cacheSvc, userRepo, validate, logr),
		messages: service.NewMessageService(messageRepo, userRepo, validate, logr),
		dashboard: service.NewDashboardService(service.DashboardServiceParams{
			Repairs:     repairRepo,
			Enrollments: enrollmentRepo,
			Courses:     courseRepo,
			Users:       userRepo,
			Cache:       cacheSvc,
			Metrics:     metrics,
			Logger:      logr,
			Config: service.DashboardServiceConfig{
				CacheTTL:    cfg.Dashboard.CacheTTL,
				RecentLimit: cfg.Dashboard.RecentLimit,
			},
		}),
	}, nil
}
