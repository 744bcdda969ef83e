package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/export"
)

type failingRenderer struct{}

func (failingRenderer) Render(export.Dataset) ([]byte, error) { return nil, errors.New("boom") }
func (failingRenderer) ContentType() string                   { return "text/plain" }
func (failingRenderer) Extension() string                     { return "txt" }

func newExportFixture(store *memoryReviewStore) *ExportService {
	review, _ := newReviewService(store)
	svc := NewExportService(review, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestExportPendingCSV(t *testing.T) {
	leave := pendingRow("r-1", models.RequestTypeLeave, "t-1")
	name := "Asha"
	key := "stu-1/1.pdf"
	leave.StudentName = &name
	leave.FilePath = &key
	leave.Message = "fever, doctor visit"
	leave.Date = models.NewDate(2024, time.March, 12)
	store := &memoryReviewStore{rows: []*models.RequestDetail{
		leave,
		pendingRow("r-2", models.RequestTypeAttendanceCorrection, "t-1"),
		pendingRow("r-3", models.RequestTypeLeave, "t-2"),
	}}
	svc := newExportFixture(store)

	file, err := svc.ExportPending(context.Background(), teacherSession("t-1"), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "pending-requests-20240310-093000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(exportHeaders, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0001-01-01 00:00,Attendance Corrections,"))
	assert.Contains(t, lines[2], `Leave Requests,Asha,,,,2024-03-12,"fever, doctor visit",yes`)
}

func TestExportPendingPDF(t *testing.T) {
	svc := newExportFixture(&memoryReviewStore{})

	file, err := svc.ExportPending(context.Background(), teacherSession("t-1"), "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF-")))
}

func TestExportPendingErrors(t *testing.T) {
	svc := newExportFixture(&memoryReviewStore{})
	_, err := svc.ExportPending(context.Background(), teacherSession("t-1"), "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	svc = newExportFixture(&memoryReviewStore{listErr: errors.New("down")})
	_, err = svc.ExportPending(context.Background(), teacherSession("t-1"), ExportFormatCSV)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	review, _ := newReviewService(&memoryReviewStore{})
	svc = NewExportService(review, failingRenderer{}, nil, nil)
	_, err = svc.ExportPending(context.Background(), teacherSession("t-1"), "")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
