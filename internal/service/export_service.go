package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/export"
)

// ExportFormat selects the rendered output of an export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{"Submitted", "Type", "Student", "Class", "Semester", "Subject", "Date", "Message", "Attachment"}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

type pendingSource interface {
	Pending(ctx context.Context, session *models.Session) (*dto.PendingOverview, error)
}

// ExportFile is a rendered export ready to be sent.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a teacher's pending requests into downloadable files.
type ExportService struct {
	pending   pendingSource
	renderers map[ExportFormat]renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the default exporters.
func NewExportService(pending pendingSource, csv, pdf renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		pending:   pending,
		renderers: map[ExportFormat]renderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:    logger,
		now:       time.Now,
	}
}

// ExportPending renders the teacher's pending list in the requested format.
func (s *ExportService) ExportPending(ctx context.Context, session *models.Session, format ExportFormat) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	r, ok := s.renderers[ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	overview, err := s.pending.Pending(ctx, session)
	if err != nil {
		return nil, err
	}

	body, err := r.Render(pendingDataset(overview))
	if err != nil {
		s.logger.Error("failed to render pending export", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("pending-requests-%s.%s", s.now().UTC().Format("20060102-150405"), r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func pendingDataset(overview *dto.PendingOverview) export.Dataset {
	data := export.Dataset{Title: "Pending requests", Headers: exportHeaders}
	for _, group := range []dto.RequestGroup{overview.Corrections, overview.Leave} {
		for _, item := range group.Items {
			attachment := ""
			if item.FilePath != nil {
				attachment = "yes"
			}
			data.Rows = append(data.Rows, map[string]string{
				"Submitted":  item.CreatedAt.UTC().Format("2006-01-02 15:04"),
				"Type":       group.Label,
				"Student":    deref(item.StudentName),
				"Class":      deref(item.ClassName),
				"Semester":   deref(item.SemesterName),
				"Subject":    deref(item.SubjectName),
				"Date":       item.Date.String(),
				"Message":    item.Message,
				"Attachment": attachment,
			})
		}
	}
	return data
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
