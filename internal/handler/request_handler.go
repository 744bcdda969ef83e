package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/middleware"
	"github.com/noah-isme/attendance-request-api/internal/models"
	"github.com/noah-isme/attendance-request-api/internal/service"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/response"
)

// Notices shown after a submission.
const (
	NoticeCorrectionSubmitted = "Attendance correction request submitted"
	NoticeLeaveSubmitted      = "Leave request submitted successfully"
	NoticeSubmitFailed        = "Failed to submit request"
)

type submissionService interface {
	CorrectionForm(ctx context.Context, session *models.Session) (*dto.CorrectionFormView, bool, error)
	LeaveForm(ctx context.Context, session *models.Session) (*dto.LeaveFormView, bool, error)
	History(ctx context.Context, session *models.Session) ([]models.RequestDetail, error)
	SubmitCorrection(ctx context.Context, session *models.Session, req dto.SubmitCorrectionRequest) (*models.Request, error)
	SubmitLeave(ctx context.Context, session *models.Session, req dto.SubmitLeaveRequest, file *service.Attachment) (*models.Request, error)
}

// RequestHandler serves the student's request forms and submissions.
type RequestHandler struct {
	service            submissionService
	maxAttachmentBytes int64
}

// NewRequestHandler constructs a RequestHandler. Leave bodies may carry maxAttachmentBytes of
// file plus 1 MiB of form fields; zero selects service.DefaultAttachmentMaxBytes.
func NewRequestHandler(svc submissionService, maxAttachmentBytes int64) *RequestHandler {
	if maxAttachmentBytes <= 0 {
		maxAttachmentBytes = service.DefaultAttachmentMaxBytes
	}
	return &RequestHandler{service: svc, maxAttachmentBytes: maxAttachmentBytes}
}

// History godoc
// @Summary Own requests
// @Description Requests submitted by the current student, newest first
// @Tags Student Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/requests [get]
func (h *RequestHandler) History(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.History(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// CorrectionForm godoc
// @Summary Attendance correction form
// @Description Class, semester, subjects of the class and the latest selectable date
// @Tags Student Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/request-attendance [get]
func (h *RequestHandler) CorrectionForm(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	view, hit, err := h.service.CorrectionForm(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, view, metaOrEmpty(c))
}

// SubmitCorrection godoc
// @Summary Submit attendance correction
// @Tags Student Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SubmitCorrectionRequest true "Correction"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /student/request-attendance [post]
func (h *RequestHandler) SubmitCorrection(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		submissionFailed(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Please fill all required fields"))
		return
	}
	record, err := h.service.SubmitCorrection(c.Request.Context(), session, req)
	if err != nil {
		submissionFailed(c, err)
		return
	}
	response.Flash(c, http.StatusCreated, record,
		&response.Notice{Title: "Request Sent", Description: NoticeCorrectionSubmitted, Variant: response.NoticeSuccess},
		models.RouteStudentDashboard)
}

// LeaveForm godoc
// @Summary Leave form
// @Description Teacher roster, class, semester, earliest selectable date and attachment policy
// @Tags Student Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/request-leave [get]
func (h *RequestHandler) LeaveForm(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	view, hit, err := h.service.LeaveForm(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, view, metaOrEmpty(c))
}

// SubmitLeave godoc
// @Summary Submit leave request
// @Tags Student Requests
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param message formData string true "Reason"
// @Param teacher_id formData string true "Teacher ID"
// @Param date formData string true "Leave date (YYYY-MM-DD)"
// @Param file formData file false "Supporting document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /student/request-leave [post]
func (h *RequestHandler) SubmitLeave(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	maxBody := h.maxAttachmentBytes + 1<<20
	if c.Request.ContentLength > maxBody {
		submissionFailed(c, h.bodyTooLarge(nil))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)

	var req dto.SubmitLeaveRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			submissionFailed(c, h.bodyTooLarge(err))
			return
		}
		submissionFailed(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Please fill all required fields"))
		return
	}

	var attachment *service.Attachment
	header, err := c.FormFile("file")
	switch {
	case err == nil:
		file, err := header.Open()
		if err != nil {
			submissionFailed(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read file"))
			return
		}
		defer file.Close()
		attachment = &service.Attachment{Filename: header.Filename, Size: header.Size, Content: file}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		submissionFailed(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read file"))
		return
	}

	record, err := h.service.SubmitLeave(c.Request.Context(), session, req, attachment)
	if err != nil {
		submissionFailed(c, err)
		return
	}
	response.Flash(c, http.StatusCreated, record,
		&response.Notice{Title: "Request Sent", Description: NoticeLeaveSubmitted, Variant: response.NoticeSuccess},
		models.RouteStudentDashboard)
}

func (h *RequestHandler) bodyTooLarge(err error) *appErrors.Error {
	return appErrors.WrapAs(err, appErrors.ErrPayloadTooLarge,
		fmt.Sprintf("File size must be less than %dMB", h.maxAttachmentBytes/(1024*1024)))
}

func submissionFailed(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	notice := &response.Notice{Title: "Error", Description: appErr.Message}
	switch {
	case errors.Is(appErr, appErrors.ErrUploadFailed):
		notice.Description = appErrors.ErrUploadFailed.Message
	case appErr.Status >= http.StatusInternalServerError:
		notice.Description = NoticeSubmitFailed
	}
	response.ErrorNotice(c, appErr, notice, "")
}
