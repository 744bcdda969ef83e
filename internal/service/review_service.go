package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
)

// Empty-state messages of the pending partitions.
const (
	EmptyCorrectionsMessage = "No pending correction requests"
	EmptyLeaveMessage       = "No pending leave requests"
)

type reviewStore interface {
	ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.RequestDetail, error)
	GetDetail(ctx context.Context, id string) (*models.RequestDetail, error)
	UpdateStatus(ctx context.Context, id, teacherID string, status models.RequestStatus) error
}

type attachmentReader interface {
	Open(key string) (*os.File, error)
}

type attachmentSigner interface {
	Generate(resourceID, key string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (resourceID, key string, expiresAt time.Time, err error)
}

// ReviewConfig tunes the review flow.
type ReviewConfig struct {
	APIPrefix   string
	PreviewSize int
}

// AttachmentDownload bundles an opened attachment for streaming.
type AttachmentDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	SizeBytes   int64
}

// ReviewService lets a teacher list, inspect and decide the requests addressed to them.
type ReviewService struct {
	store     reviewStore
	files     attachmentReader
	signer    attachmentSigner
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReviewConfig
}

// NewReviewService constructs a ReviewService.
func NewReviewService(store reviewStore, files attachmentReader, signer attachmentSigner, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ReviewConfig) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.PreviewSize <= 0 {
		cfg.PreviewSize = 5
	}
	return &ReviewService{
		store:     store,
		files:     files,
		signer:    signer,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Pending returns the teacher's pending requests partitioned by type, newest first.
func (s *ReviewService) Pending(ctx context.Context, session *models.Session) (*dto.PendingOverview, error) {
	start := time.Now()
	items, err := s.store.ListPendingForTeacher(ctx, session.PrincipalID)
	s.metrics.ObserveDBQuery("requests_pending", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending requests")
	}
	overview := s.partition(items)
	return &overview, nil
}

// Preview is Pending with each group cut to the preview size. Counts stay complete.
func (s *ReviewService) Preview(ctx context.Context, session *models.Session) (*dto.PendingOverview, error) {
	overview, err := s.Pending(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(overview.Corrections.Items) > s.cfg.PreviewSize {
		overview.Corrections.Items = overview.Corrections.Items[:s.cfg.PreviewSize]
	}
	if len(overview.Leave.Items) > s.cfg.PreviewSize {
		overview.Leave.Items = overview.Leave.Items[:s.cfg.PreviewSize]
	}
	return overview, nil
}

// Detail returns one request addressed to the teacher, with a signed attachment link when present.
func (s *ReviewService) Detail(ctx context.Context, session *models.Session, id string) (*dto.RequestDetailResponse, error) {
	detail, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.RequestDetailResponse{RequestDetail: *detail}
	if detail.FilePath != nil && s.signer != nil {
		token, expiresAt, err := s.signer.Generate(detail.ID, *detail.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign attachment url", zap.String("request_id", detail.ID), zap.Error(err))
			return resp, nil
		}
		base := strings.TrimRight(s.cfg.APIPrefix, "/")
		resp.AttachmentURL = fmt.Sprintf("%s/teacher/requests/%s/attachment?token=%s", base, detail.ID, url.QueryEscape(token))
		resp.AttachmentExpiresAt = &expiresAt
	}
	return resp, nil
}

// Attachment opens the attachment of a request after validating its signed token.
func (s *ReviewService) Attachment(ctx context.Context, session *models.Session, id, token string) (*AttachmentDownload, error) {
	if s.signer == nil || s.files == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not available")
	}
	resourceID, key, _, err := s.signer.Parse(token, false)
	if err != nil || resourceID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "attachment link is invalid or expired")
	}
	detail, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if detail.FilePath == nil || *detail.FilePath != key {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	file, err := s.files.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment")
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &AttachmentDownload{
		File:        file,
		Filename:    path.Base(key),
		ContentType: contentType,
		SizeBytes:   info.Size(),
	}, nil
}

// Transition approves or rejects a pending request and returns the refreshed pending list.
func (s *ReviewService) Transition(ctx context.Context, session *models.Session, id string, req dto.TransitionRequest) (*dto.TransitionResult, error) {
	if !isRequestID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be approved or rejected")
	}
	if !models.CanTransition(models.RequestStatusPending, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be approved or rejected")
	}

	start := time.Now()
	err := s.store.UpdateStatus(ctx, id, session.PrincipalID, req.Status)
	s.metrics.ObserveDBQuery("request_update_status", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.explainMiss(ctx, session, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to update request")
	}

	s.metrics.RecordReview(req.Status)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &session.PrincipalID,
		Action:     models.AuditActionRequestReview,
		Resource:   models.AuditResourceStudentRequest,
		ResourceID: &id,
		OldValues:  []byte(`{"status":"pending"}`),
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, req.Status)),
	})

	result := &dto.TransitionResult{RequestID: id, Status: req.Status}
	pending, err := s.Pending(ctx, session)
	if err != nil {
		s.logger.Warn("failed to refresh pending requests after transition", zap.String("request_id", id), zap.Error(err))
		return result, nil
	}
	result.Pending = pending
	return result, nil
}

// explainMiss classifies an update that matched no row.
func (s *ReviewService) explainMiss(ctx context.Context, session *models.Session, id string) error {
	detail, err := s.owned(ctx, session, id)
	if err != nil {
		return err
	}
	if detail.Status != models.RequestStatusPending {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("request is already %s", detail.Status))
	}
	return appErrors.Clone(appErrors.ErrConflict, "Failed to update request")
}

func (s *ReviewService) owned(ctx context.Context, session *models.Session, id string) (*models.RequestDetail, error) {
	if !isRequestID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	detail, err := s.store.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if detail.TeacherID != session.PrincipalID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return detail, nil
}

// isRequestID reports whether id can address a student_requests row.
func isRequestID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *ReviewService) partition(items []models.RequestDetail) dto.PendingOverview {
	overview := dto.PendingOverview{
		Corrections: dto.RequestGroup{
			Type:  models.RequestTypeAttendanceCorrection,
			Label: "Attendance Corrections",
			Items: make([]models.RequestDetail, 0),
		},
		Leave: dto.RequestGroup{
			Type:  models.RequestTypeLeave,
			Label: "Leave Requests",
			Items: make([]models.RequestDetail, 0),
		},
	}
	for _, item := range items {
		switch item.Type {
		case models.RequestTypeAttendanceCorrection:
			overview.Corrections.Items = append(overview.Corrections.Items, item)
		case models.RequestTypeLeave:
			overview.Leave.Items = append(overview.Leave.Items, item)
		default:
			s.logger.Warn("skipping request of unknown type", zap.String("request_id", item.ID), zap.String("type", string(item.Type)))
		}
	}
	overview.Corrections.Count = len(overview.Corrections.Items)
	overview.Leave.Count = len(overview.Leave.Items)
	overview.Total = overview.Corrections.Count + overview.Leave.Count
	if overview.Corrections.Count == 0 {
		overview.Corrections.EmptyMessage = EmptyCorrectionsMessage
	}
	if overview.Leave.Count == 0 {
		overview.Leave.EmptyMessage = EmptyLeaveMessage
	}
	return overview
}

func (s *ReviewService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "review-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to create review audit", zap.Error(err))
	}
}
