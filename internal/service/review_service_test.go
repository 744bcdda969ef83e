package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/storage"
)

type updateCall struct {
	id, teacherID string
	status        models.RequestStatus
}

type memoryReviewStore struct {
	rows      []*models.RequestDetail
	updates   []updateCall
	listCalls int
	listErr   error
	updateErr error
}

func (m *memoryReviewStore) ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.RequestDetail, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.RequestDetail
	for _, row := range m.rows {
		if row.TeacherID == teacherID && row.Status == models.RequestStatusPending {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memoryReviewStore) GetDetail(ctx context.Context, id string) (*models.RequestDetail, error) {
	for _, row := range m.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryReviewStore) UpdateStatus(ctx context.Context, id, teacherID string, status models.RequestStatus) error {
	m.updates = append(m.updates, updateCall{id: id, teacherID: teacherID, status: status})
	if m.updateErr != nil {
		return m.updateErr
	}
	for _, row := range m.rows {
		if row.ID == id && row.TeacherID == teacherID && row.Status == models.RequestStatusPending {
			row.Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func pendingRow(id string, kind models.RequestType, teacherID string) *models.RequestDetail {
	return &models.RequestDetail{Request: models.Request{
		ID:        id,
		Type:      kind,
		TeacherID: teacherID,
		StudentID: "stu-1",
		Status:    models.RequestStatusPending,
	}}
}

const (
	requestOne   = "0b6f4c1e-5d2a-4c8e-9f31-7a2d6e9b1c01"
	requestTwo   = "0b6f4c1e-5d2a-4c8e-9f31-7a2d6e9b1c02"
	requestThree = "0b6f4c1e-5d2a-4c8e-9f31-7a2d6e9b1c03"
)

func teacherSession(id string) *models.Session {
	return &models.Session{PrincipalID: id, Role: models.RoleTeacher}
}

func newReviewService(store *memoryReviewStore) (*ReviewService, *auditRecorderStub) {
	audit := &auditRecorderStub{}
	return NewReviewService(store, nil, nil, audit, NewMetricsService(), nil, zap.NewNop(), ReviewConfig{}), audit
}

func TestReviewPendingIsStrictPartition(t *testing.T) {
	store := &memoryReviewStore{rows: []*models.RequestDetail{
		pendingRow("r-1", models.RequestTypeLeave, "t-1"),
		pendingRow("r-2", models.RequestTypeAttendanceCorrection, "t-1"),
		pendingRow("r-3", models.RequestTypeLeave, "t-1"),
		pendingRow("r-4", models.RequestTypeLeave, "t-2"),
	}}
	svc, _ := newReviewService(store)

	overview, err := svc.Pending(context.Background(), teacherSession("t-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, overview.Corrections.Count)
	assert.Equal(t, 2, overview.Leave.Count)
	assert.Equal(t, 3, overview.Total)
	assert.Equal(t, overview.Total, len(overview.Corrections.Items)+len(overview.Leave.Items))
	assert.Empty(t, overview.Corrections.EmptyMessage)

	seen := map[string]int{}
	for _, item := range overview.Corrections.Items {
		assert.Equal(t, models.RequestTypeAttendanceCorrection, item.Type)
		seen[item.ID]++
	}
	for _, item := range overview.Leave.Items {
		assert.Equal(t, models.RequestTypeLeave, item.Type)
		seen[item.ID]++
	}
	assert.Equal(t, map[string]int{"r-1": 1, "r-2": 1, "r-3": 1}, seen)
}

func TestReviewPendingEmptyMessages(t *testing.T) {
	svc, _ := newReviewService(&memoryReviewStore{})

	overview, err := svc.Pending(context.Background(), teacherSession("t-1"))
	require.NoError(t, err)
	assert.Equal(t, EmptyCorrectionsMessage, overview.Corrections.EmptyMessage)
	assert.Equal(t, EmptyLeaveMessage, overview.Leave.EmptyMessage)
	assert.NotNil(t, overview.Leave.Items)
	assert.Zero(t, overview.Total)
}

func TestReviewApproveRemovesFromPending(t *testing.T) {
	store := &memoryReviewStore{rows: []*models.RequestDetail{
		pendingRow(requestOne, models.RequestTypeAttendanceCorrection, "t-1"),
		pendingRow(requestTwo, models.RequestTypeLeave, "t-1"),
	}}
	svc, audit := newReviewService(store)

	result, err := svc.Transition(context.Background(), teacherSession("t-1"), requestOne, dto.TransitionRequest{Status: models.RequestStatusApproved})
	require.NoError(t, err)
	require.Len(t, store.updates, 1)
	assert.Equal(t, updateCall{id: requestOne, teacherID: "t-1", status: models.RequestStatusApproved}, store.updates[0])

	require.NotNil(t, result.Pending)
	for _, item := range append(result.Pending.Corrections.Items, result.Pending.Leave.Items...) {
		assert.NotEqual(t, requestOne, item.ID)
	}
	assert.Equal(t, 1, result.Pending.Total)

	again, err := svc.Pending(context.Background(), teacherSession("t-1"))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Corrections.Count)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRequestReview, audit.logs[0].Action)
}

func TestReviewTransitionFromTerminalIsRejected(t *testing.T) {
	row := pendingRow(requestOne, models.RequestTypeLeave, "t-1")
	row.Status = models.RequestStatusApproved
	store := &memoryReviewStore{rows: []*models.RequestDetail{row}}
	svc, audit := newReviewService(store)

	_, err := svc.Transition(context.Background(), teacherSession("t-1"), requestOne, dto.TransitionRequest{Status: models.RequestStatusRejected})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.RequestStatusApproved, row.Status)
	assert.Empty(t, audit.logs)
	assert.Len(t, store.updates, 1)
}

func TestReviewTransitionUnknownOrForeign(t *testing.T) {
	store := &memoryReviewStore{rows: []*models.RequestDetail{pendingRow(requestOne, models.RequestTypeLeave, "t-2")}}
	svc, _ := newReviewService(store)

	_, err := svc.Transition(context.Background(), teacherSession("t-1"), requestOne, dto.TransitionRequest{Status: models.RequestStatusApproved})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Transition(context.Background(), teacherSession("t-1"), requestThree, dto.TransitionRequest{Status: models.RequestStatusApproved})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReviewTransitionRejectsPendingTarget(t *testing.T) {
	store := &memoryReviewStore{rows: []*models.RequestDetail{pendingRow(requestOne, models.RequestTypeLeave, "t-1")}}
	svc, _ := newReviewService(store)

	_, err := svc.Transition(context.Background(), teacherSession("t-1"), requestOne, dto.TransitionRequest{Status: models.RequestStatusPending})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.updates)
}

func TestReviewTransitionStoreFailure(t *testing.T) {
	store := &memoryReviewStore{
		rows:      []*models.RequestDetail{pendingRow(requestOne, models.RequestTypeLeave, "t-1")},
		updateErr: errors.New("connection refused"),
	}
	svc, _ := newReviewService(store)

	_, err := svc.Transition(context.Background(), teacherSession("t-1"), requestOne, dto.TransitionRequest{Status: models.RequestStatusApproved})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, "Failed to update request", appErr.Message)
	assert.Zero(t, store.listCalls)
}

func TestReviewPreviewKeepsCounts(t *testing.T) {
	store := &memoryReviewStore{}
	for i := 0; i < 7; i++ {
		store.rows = append(store.rows, pendingRow(string(rune('a'+i)), models.RequestTypeLeave, "t-1"))
	}
	svc, _ := newReviewService(store)

	overview, err := svc.Preview(context.Background(), teacherSession("t-1"))
	require.NoError(t, err)
	assert.Len(t, overview.Leave.Items, 5)
	assert.Equal(t, 7, overview.Leave.Count)
}

func TestReviewDetailAndAttachment(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir, "student-requests")
	require.NoError(t, err)
	key := "stu-1/1710063000000.pdf"
	_, err = files.SaveStream(key, strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)

	row := pendingRow(requestOne, models.RequestTypeLeave, "t-1")
	row.FilePath = &key
	store := &memoryReviewStore{rows: []*models.RequestDetail{row}}
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	svc := NewReviewService(store, files, signer, nil, nil, nil, zap.NewNop(), ReviewConfig{APIPrefix: "/api/v1"})

	detail, err := svc.Detail(context.Background(), teacherSession("t-1"), requestOne)
	require.NoError(t, err)
	require.NotNil(t, detail.AttachmentExpiresAt)
	assert.True(t, strings.HasPrefix(detail.AttachmentURL, "/api/v1/teacher/requests/"+requestOne+"/attachment?token="))

	parsed, err := url.Parse(detail.AttachmentURL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")

	download, err := svc.Attachment(context.Background(), teacherSession("t-1"), requestOne, token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "1710063000000.pdf", download.Filename)
	assert.Equal(t, "application/pdf", download.ContentType)
	assert.Equal(t, int64(len("%PDF-1.4 body")), download.SizeBytes)

	_, err = svc.Attachment(context.Background(), teacherSession("t-2"), requestOne, token)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Attachment(context.Background(), teacherSession("t-1"), requestOne, "tampered")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = os.Stat(filepath.Join(dir, "student-requests", key))
	assert.NoError(t, err)
}

func TestReviewMalformedIDIsNotFound(t *testing.T) {
	store := &memoryReviewStore{rows: []*models.RequestDetail{pendingRow("r-1", models.RequestTypeLeave, "t-1")}}
	svc, audit := newReviewService(store)
	session := teacherSession("t-1")

	_, err := svc.Transition(context.Background(), session, "r-1", dto.TransitionRequest{Status: models.RequestStatusApproved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.updates)
	assert.Empty(t, audit.logs)

	_, err = svc.Detail(context.Background(), session, "1 OR 1=1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "request not found", appErrors.FromError(err).Message)
}
