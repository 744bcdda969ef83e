package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/models"
	"github.com/noah-isme/attendance-request-api/internal/service"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/response"
)

// NoticeUpdateFailed is shown when a transition could not be applied.
const NoticeUpdateFailed = "Failed to update request"

type reviewService interface {
	Pending(ctx context.Context, session *models.Session) (*dto.PendingOverview, error)
	Detail(ctx context.Context, session *models.Session, id string) (*dto.RequestDetailResponse, error)
	Attachment(ctx context.Context, session *models.Session, id, token string) (*service.AttachmentDownload, error)
	Transition(ctx context.Context, session *models.Session, id string, req dto.TransitionRequest) (*dto.TransitionResult, error)
}

type pendingExporter interface {
	ExportPending(ctx context.Context, session *models.Session, format service.ExportFormat) (*service.ExportFile, error)
}

// ReviewHandler serves the teacher's review of pending requests.
type ReviewHandler struct {
	service  reviewService
	exporter pendingExporter
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(service reviewService, exporter pendingExporter) *ReviewHandler {
	return &ReviewHandler{service: service, exporter: exporter}
}

// Pending godoc
// @Summary Pending requests
// @Description Pending requests addressed to the current teacher, partitioned into corrections and leave, newest first
// @Tags Teacher Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/requests [get]
func (h *ReviewHandler) Pending(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	overview, err := h.service.Pending(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview)
}

// Export godoc
// @Summary Export pending requests
// @Tags Teacher Requests
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /teacher/requests/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export not available"))
		return
	}
	file, err := h.exporter.ExportPending(c.Request.Context(), session, service.ExportFormat(strings.TrimSpace(c.Query("format"))))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// Detail godoc
// @Summary Request detail
// @Tags Teacher Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/requests/{id} [get]
func (h *ReviewHandler) Detail(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	detail, err := h.service.Detail(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Attachment godoc
// @Summary Download request attachment
// @Tags Teacher Requests
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/requests/{id}/attachment [get]
func (h *ReviewHandler) Attachment(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.service.Attachment(c.Request.Context(), session, c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, download.Filename))
	c.DataFromReader(http.StatusOK, download.SizeBytes, download.ContentType, download.File, nil)
}

// Approve godoc
// @Summary Approve a pending request
// @Tags Teacher Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher/requests/{id}/approve [post]
func (h *ReviewHandler) Approve(c *gin.Context) {
	h.transition(c, dto.TransitionRequest{Status: models.RequestStatusApproved})
}

// Reject godoc
// @Summary Reject a pending request
// @Tags Teacher Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher/requests/{id}/reject [post]
func (h *ReviewHandler) Reject(c *gin.Context) {
	h.transition(c, dto.TransitionRequest{Status: models.RequestStatusRejected})
}

// UpdateStatus godoc
// @Summary Decide a pending request
// @Tags Teacher Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param payload body dto.TransitionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher/requests/{id} [patch]
func (h *ReviewHandler) UpdateStatus(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	h.transition(c, req)
}

func (h *ReviewHandler) transition(c *gin.Context, req dto.TransitionRequest) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	result, err := h.service.Transition(c.Request.Context(), session, c.Param("id"), req)
	if err != nil {
		appErr := appErrors.FromError(err)
		description := NoticeUpdateFailed
		if appErr.Status < http.StatusInternalServerError {
			description = appErr.Message
		}
		response.ErrorNotice(c, appErr, &response.Notice{Title: "Error", Description: description}, "")
		return
	}
	response.Flash(c, http.StatusOK, result,
		&response.Notice{Title: "Success", Description: fmt.Sprintf("Request %s", result.Status), Variant: response.NoticeSuccess}, "")
}
