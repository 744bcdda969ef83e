package main

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/handler"
	"github.com/noah-isme/attendance-request-api/internal/repository"
	"github.com/noah-isme/attendance-request-api/internal/service"
	"github.com/noah-isme/attendance-request-api/pkg/config"
	"github.com/noah-isme/attendance-request-api/pkg/storage"
)

type application struct {
	metrics *service.MetricsService
	auth    *service.AuthService

	landingHandler *handler.LandingHandler
	authHandler    *handler.AuthHandler
	teacherHandler *handler.TeacherHandler
	studentHandler *handler.StudentHandler
	requestHandler *handler.RequestHandler
	reviewHandler  *handler.ReviewHandler
	metricsHandler *handler.MetricsHandler
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, files *storage.LocalStorage, logr *zap.Logger) *application {
	validate := validator.New()
	metrics := service.NewMetricsService()
	loc := cfg.Location()

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var cacheBackend service.CacheRepository
	if cacheRepo.Enabled() {
		cacheBackend = cacheRepo
	}
	cacheService := service.NewCacheService(cacheBackend, metrics, cfg.Reference.CacheTTL, logr, cfg.Reference.Enabled && cacheRepo.Enabled())

	revocations := service.NewTokenRevocationService(cacheRepo, logr)
	authService := service.NewAuthService(userRepo, revocations, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	signingSecret := cfg.Attachments.SignedURLSecret
	if signingSecret == "" {
		signingSecret = cfg.JWT.Secret
	}
	signer := storage.NewSignedURLSigner(signingSecret, cfg.Attachments.SignedURLTTL)

	references := service.NewReferenceService(referenceRepo, cacheService, metrics, cfg.Reference.CacheTTL, logr)
	guard := service.NewSubmissionGuard(cacheRepo, cfg.Submission.LockTTL, logr)
	submissions := service.NewSubmissionService(requestRepo, references, files, guard, userRepo, userRepo, metrics, validate, logr, service.SubmissionConfig{
		Location:           loc,
		MaxAttachmentBytes: cfg.Attachments.MaxFileSizeBytes,
	})
	reviews := service.NewReviewService(requestRepo, files, signer, userRepo, metrics, validate, logr, service.ReviewConfig{
		APIPrefix: cfg.APIPrefix,
	})
	snapshots := service.NewSnapshotService(loc)
	setup := service.NewSetupService(reviews, snapshots, validate, loc)

	var reviewHandler *handler.ReviewHandler
	if cfg.Export.Enabled {
		reviewHandler = handler.NewReviewHandler(reviews, service.NewExportService(reviews, nil, nil, logr))
	} else {
		reviewHandler = handler.NewReviewHandler(reviews, nil)
	}

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	return &application{
		metrics:        metrics,
		auth:           authService,
		landingHandler: handler.NewLandingHandler(),
		authHandler:    handler.NewAuthHandler(authService),
		teacherHandler: handler.NewTeacherHandler(setup),
		studentHandler: handler.NewStudentHandler(snapshots),
		requestHandler: handler.NewRequestHandler(submissions, cfg.Attachments.MaxFileSizeBytes),
		reviewHandler:  reviewHandler,
		metricsHandler: handler.NewMetricsHandler(metrics, checks),
	}
}
