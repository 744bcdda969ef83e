package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/models"
	"github.com/noah-isme/attendance-request-api/internal/repository"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
)

type requestWriter interface {
	Create(ctx context.Context, req *models.Request) error
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.RequestDetail, error)
}

type submissionReferences interface {
	Enrollment(ctx context.Context, studentID string) (*models.StudentEnrollment, error)
	Subject(ctx context.Context, id string) (*models.Subject, error)
	Subjects(ctx context.Context, classID string) ([]models.Subject, bool, error)
	Teachers(ctx context.Context) ([]models.TeacherOption, bool, error)
}

type attachmentStorage interface {
	SaveStream(key string, r io.Reader) (string, error)
}

type inFlightGuard interface {
	Acquire(ctx context.Context, studentID string, kind models.RequestType) (func(), bool, error)
}

type roleChecker interface {
	HasRole(ctx context.Context, principalID string, role models.Role) (bool, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SubmissionConfig tunes request submission.
type SubmissionConfig struct {
	Location           *time.Location
	MaxAttachmentBytes int64
	HistoryLimit       int
}

// SubmissionService accepts attendance-correction and leave requests from students.
type SubmissionService struct {
	requests  requestWriter
	refs      submissionReferences
	storage   attachmentStorage
	guard     inFlightGuard
	roles     roleChecker
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SubmissionConfig
	clock     clock
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(
	requests requestWriter,
	refs submissionReferences,
	storage attachmentStorage,
	guard inFlightGuard,
	roles roleChecker,
	audit auditLogger,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SubmissionConfig,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxAttachmentBytes <= 0 {
		cfg.MaxAttachmentBytes = DefaultAttachmentMaxBytes
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	return &SubmissionService{
		requests:  requests,
		refs:      refs,
		storage:   storage,
		guard:     guard,
		roles:     roles,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		clock:     newClock(cfg.Location),
	}
}

// CorrectionForm returns what the attendance-correction form offers. The boolean reports a cache hit.
func (s *SubmissionService) CorrectionForm(ctx context.Context, session *models.Session) (*dto.CorrectionFormView, bool, error) {
	enrollment, err := s.refs.Enrollment(ctx, session.PrincipalID)
	if err != nil {
		return nil, false, err
	}
	subjects, hit, err := s.refs.Subjects(ctx, enrollment.ClassID)
	if err != nil {
		return nil, false, err
	}
	return &dto.CorrectionFormView{
		Enrollment: *enrollment,
		Subjects:   subjects,
		MaxDate:    s.clock.today(),
	}, hit, nil
}

// LeaveForm returns what the leave form offers. The boolean reports a cache hit.
func (s *SubmissionService) LeaveForm(ctx context.Context, session *models.Session) (*dto.LeaveFormView, bool, error) {
	enrollment, err := s.refs.Enrollment(ctx, session.PrincipalID)
	if err != nil {
		return nil, false, err
	}
	teachers, hit, err := s.refs.Teachers(ctx)
	if err != nil {
		return nil, false, err
	}
	return &dto.LeaveFormView{
		Enrollment: *enrollment,
		Teachers:   teachers,
		MinDate:    s.clock.today(),
		Attachment: dto.AttachmentPolicy{MaxBytes: s.cfg.MaxAttachmentBytes, Accept: AttachmentAccept},
	}, hit, nil
}

// History lists the student's own requests, newest first.
func (s *SubmissionService) History(ctx context.Context, session *models.Session) ([]models.RequestDetail, error) {
	items, err := s.requests.ListByStudent(ctx, session.PrincipalID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requests")
	}
	return items, nil
}

// SubmitCorrection stores a pending attendance-correction request addressed to the subject's teacher.
func (s *SubmissionService) SubmitCorrection(ctx context.Context, session *models.Session, req dto.SubmitCorrectionRequest) (*models.Request, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Please fill all required fields")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please fill all required fields")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	if date.After(s.clock.today()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date cannot be in the future")
	}

	release, err := s.acquire(ctx, session.PrincipalID, models.RequestTypeAttendanceCorrection)
	if err != nil {
		return nil, err
	}
	defer release()

	enrollment, err := s.refs.Enrollment(ctx, session.PrincipalID)
	if err != nil {
		return nil, err
	}
	subject, err := s.refs.Subject(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if subject.ClassID != enrollment.ClassID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject is not taught in your class")
	}

	subjectID := subject.ID
	record := &models.Request{
		Type:       models.RequestTypeAttendanceCorrection,
		StudentID:  session.PrincipalID,
		TeacherID:  subject.TeacherID,
		ClassID:    enrollment.ClassID,
		SemesterID: enrollment.SemesterID,
		SubjectID:  &subjectID,
		Date:       date,
		Message:    message,
	}
	if err := s.store(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// SubmitLeave stores a pending leave request. An attachment is uploaded before the insert;
// an insert failing afterwards leaves the uploaded object in place.
func (s *SubmissionService) SubmitLeave(ctx context.Context, session *models.Session, req dto.SubmitLeaveRequest, file *Attachment) (*models.Request, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Please fill all required fields")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please fill all required fields")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	if date.Before(s.clock.today()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date cannot be in the past")
	}

	var (
		ext  string
		body io.Reader
	)
	if file != nil {
		if ext, body, err = inspectAttachment(file, s.cfg.MaxAttachmentBytes); err != nil {
			return nil, err
		}
	}

	release, err := s.acquire(ctx, session.PrincipalID, models.RequestTypeLeave)
	if err != nil {
		return nil, err
	}
	defer release()

	if s.roles != nil {
		ok, err := s.roles.HasRole(ctx, req.TeacherID, models.RoleTeacher)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "selected teacher is not available")
		}
	}

	enrollment, err := s.refs.Enrollment(ctx, session.PrincipalID)
	if err != nil {
		return nil, err
	}

	var filePath *string
	if body != nil {
		key := attachmentKey(session.PrincipalID, s.clock.now(), ext)
		stored, err := s.storage.SaveStream(key, body)
		if err != nil {
			s.metrics.RecordUploadFailure()
			s.logger.Warn("attachment upload failed", zap.String("key", key), zap.Error(err))
			return nil, appErrors.WrapAs(err, appErrors.ErrUploadFailed, "")
		}
		filePath = &stored
	}

	record := &models.Request{
		Type:       models.RequestTypeLeave,
		StudentID:  session.PrincipalID,
		TeacherID:  req.TeacherID,
		ClassID:    enrollment.ClassID,
		SemesterID: enrollment.SemesterID,
		Date:       date,
		Message:    message,
		FilePath:   filePath,
	}
	if err := s.store(ctx, record); err != nil {
		if filePath != nil {
			s.logger.Warn("leave request not stored, uploaded attachment left in place",
				zap.String("key", *filePath), zap.Error(err))
		}
		return nil, err
	}
	return record, nil
}

func (s *SubmissionService) acquire(ctx context.Context, studentID string, kind models.RequestType) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}
	release, ok, err := s.guard.Acquire(ctx, studentID, kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit request")
	}
	if !ok {
		s.metrics.RecordRefusedSubmission(kind)
		return nil, appErrors.ErrSubmissionInFlight
	}
	return release, nil
}

func (s *SubmissionService) store(ctx context.Context, record *models.Request) error {
	start := time.Now()
	err := s.requests.Create(ctx, record)
	s.metrics.ObserveDBQuery("request_create", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrTeacherRoleMissing) {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "selected teacher is not available")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to submit request")
	}

	s.metrics.RecordSubmission(record.Type)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &record.StudentID,
		Action:     models.AuditActionRequestCreate,
		Resource:   models.AuditResourceStudentRequest,
		ResourceID: &record.ID,
		NewValues:  []byte(fmt.Sprintf(`{"type":%q,"teacher_id":%q,"date":%q}`, record.Type, record.TeacherID, record.Date)),
	})
	return nil
}

func (s *SubmissionService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "submission-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to create request audit", zap.Error(err))
	}
}
