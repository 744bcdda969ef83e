package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
)

// ReferenceRepository describes the academic reference lookups.
type ReferenceRepository interface {
	FindEnrollment(ctx context.Context, studentID string) (*models.StudentEnrollment, error)
	ListSubjectsByClass(ctx context.Context, classID string) ([]models.Subject, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	ListTeachers(ctx context.Context) ([]models.TeacherOption, error)
}

// ReferenceService serves enrollments, subjects and the teacher roster. Subject lists and the
// roster go through the cache when it is enabled; lookups used for authorization do not.
type ReferenceService struct {
	repo    ReferenceRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
}

// NewReferenceService constructs a reference service.
func NewReferenceService(repo ReferenceRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{repo: repo, cache: cache, metrics: metrics, logger: logger, ttl: ttl}
}

// Enrollment returns the class and semester of a student.
func (s *ReferenceService) Enrollment(ctx context.Context, studentID string) (*models.StudentEnrollment, error) {
	start := time.Now()
	enrollment, err := s.repo.FindEnrollment(ctx, studentID)
	s.metrics.ObserveDBQuery("reference_enrollment", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in a class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Subject fetches a subject straight from the store.
func (s *ReferenceService) Subject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.GetSubject(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Subjects lists the subjects of a class. The boolean reports a cache hit.
func (s *ReferenceService) Subjects(ctx context.Context, classID string) ([]models.Subject, bool, error) {
	key := fmt.Sprintf("reference:subjects:%s", classID)
	var cached []models.Subject
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	subjects, err := s.repo.ListSubjectsByClass(ctx, classID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	s.metrics.ObserveDBQuery("reference_subjects", time.Since(start))
	if err := s.cache.Set(ctx, key, subjects, s.ttl); err != nil {
		s.logger.Warn("cache subjects", zap.Error(err))
	}
	return subjects, false, nil
}

// Teachers lists every principal holding the teacher role. The boolean reports a cache hit.
func (s *ReferenceService) Teachers(ctx context.Context) ([]models.TeacherOption, bool, error) {
	const key = "reference:teachers"
	var cached []models.TeacherOption
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	teachers, err := s.repo.ListTeachers(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	s.metrics.ObserveDBQuery("reference_teachers", time.Since(start))
	if err := s.cache.Set(ctx, key, teachers, s.ttl); err != nil {
		s.logger.Warn("cache teachers", zap.Error(err))
	}
	return teachers, false, nil
}
