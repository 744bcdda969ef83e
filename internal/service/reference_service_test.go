package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
)

type referenceRepoStub struct {
	subjectCalls int
	teacherCalls int
	enrollment   *models.StudentEnrollment
}

func (r *referenceRepoStub) FindEnrollment(context.Context, string) (*models.StudentEnrollment, error) {
	if r.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	return r.enrollment, nil
}

func (r *referenceRepoStub) ListSubjectsByClass(_ context.Context, classID string) ([]models.Subject, error) {
	r.subjectCalls++
	return []models.Subject{{ID: "sub-1", Name: "Physics", ClassID: classID, TeacherID: "t-1"}}, nil
}

func (r *referenceRepoStub) GetSubject(context.Context, string) (*models.Subject, error) {
	return nil, sql.ErrNoRows
}

func (r *referenceRepoStub) ListTeachers(context.Context) ([]models.TeacherOption, error) {
	r.teacherCalls++
	return []models.TeacherOption{{ID: "t-1", Name: models.UnnamedTeacher}}, nil
}

type memoryCacheRepo struct {
	values map[string][]byte
	err    error
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if m.err != nil {
		return m.err
	}
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func TestReferenceServiceCachesSubjectsAndTeachers(t *testing.T) {
	repo := &referenceRepoStub{}
	metrics := NewMetricsService()
	cache := NewCacheService(&memoryCacheRepo{values: map[string][]byte{}}, metrics, time.Minute, zap.NewNop(), true)
	svc := NewReferenceService(repo, cache, metrics, time.Minute, nil)

	subjects, hit, err := svc.Subjects(context.Background(), "class-1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, subjects, 1)

	subjects, hit, err = svc.Subjects(context.Background(), "class-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Physics", subjects[0].Name)
	assert.Equal(t, 1, repo.subjectCalls)

	_, _, err = svc.Teachers(context.Background())
	require.NoError(t, err)
	teachers, hit, err := svc.Teachers(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, models.UnnamedTeacher, teachers[0].Name)
	assert.Equal(t, 1, repo.teacherCalls)
}

func TestReferenceServiceDegradesWhenCacheFails(t *testing.T) {
	repo := &referenceRepoStub{}
	cache := NewCacheService(&memoryCacheRepo{values: map[string][]byte{}, err: errors.New("redis down")}, nil, time.Minute, zap.NewNop(), true)
	svc := NewReferenceService(repo, cache, nil, time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		subjects, hit, err := svc.Subjects(context.Background(), "class-1")
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Len(t, subjects, 1)
	}
	assert.Equal(t, 2, repo.subjectCalls)
}

func TestReferenceServiceMapsMissingRows(t *testing.T) {
	svc := NewReferenceService(&referenceRepoStub{}, nil, nil, time.Minute, nil)

	_, err := svc.Enrollment(context.Background(), "stu-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Subject(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
