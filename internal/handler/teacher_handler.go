package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/middleware"
	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/response"
)

type setupService interface {
	View(ctx context.Context, session *models.Session) (*dto.TeacherSetupView, error)
	Confirm(req dto.ConfirmSetupRequest) (*dto.ConfirmSetupResponse, error)
	ParseContext(department, year, semester, date string) (models.ClassContext, error)
	Dashboard(ctx context.Context, session *models.Session, cc models.ClassContext) (*dto.TeacherDashboardView, error)
	Roster(cc models.ClassContext) models.RosterSnapshot
}

// TeacherHandler serves the class context setup and the views built on it.
type TeacherHandler struct {
	service setupService
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(service setupService) *TeacherHandler {
	return &TeacherHandler{service: service}
}

// Setup godoc
// @Summary Class context options
// @Description Departments, years and the latest selectable date, plus a preview of pending requests
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/setup [get]
func (h *TeacherHandler) Setup(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.View(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// ConfirmSetup godoc
// @Summary Confirm class context
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ConfirmSetupRequest true "Class context"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/setup [post]
func (h *TeacherHandler) ConfirmSetup(c *gin.Context) {
	if _, ok := sessionFromContext(c); !ok {
		return
	}
	var req dto.ConfirmSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorNotice(c,
			appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid setup payload"),
			&response.Notice{Title: "Missing information", Description: "Please select department, year and date"}, "")
		return
	}
	res, err := h.service.Confirm(req)
	if err != nil {
		response.ErrorNotice(c, err, &response.Notice{Title: "Missing information", Description: appErrors.FromError(err).Message}, "")
		return
	}
	response.Flash(c, http.StatusOK, res, &response.Notice{Title: "Setup complete", Variant: response.NoticeSuccess}, res.Dashboard)
}

// Dashboard godoc
// @Summary Teacher dashboard
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Param department query string true "Department"
// @Param year query int true "Year"
// @Param semester query string false "Semester"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/dashboard [get]
func (h *TeacherHandler) Dashboard(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	cc, ok := h.classContext(c)
	if !ok {
		return
	}
	view, err := h.service.Dashboard(c.Request.Context(), session, cc)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetSource(c, view.Source)
	response.JSON(c, http.StatusOK, view, metaOrEmpty(c))
}

// AttendanceList godoc
// @Summary Class attendance roster
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Param department query string true "Department"
// @Param year query int true "Year"
// @Param semester query string false "Semester"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/attendance-list [get]
func (h *TeacherHandler) AttendanceList(c *gin.Context) {
	if _, ok := sessionFromContext(c); !ok {
		return
	}
	cc, ok := h.classContext(c)
	if !ok {
		return
	}
	roster := h.service.Roster(cc)
	middleware.SetSource(c, roster.Source)
	response.JSON(c, http.StatusOK, roster, metaOrEmpty(c))
}

// classContext reads the class context from the query. Without one the teacher is sent back to setup.
func (h *TeacherHandler) classContext(c *gin.Context) (models.ClassContext, bool) {
	cc, err := h.service.ParseContext(c.Query("department"), c.Query("year"), c.Query("semester"), c.Query("date"))
	if err != nil {
		response.ErrorNotice(c, err, &response.Notice{Title: "Select a class first", Description: appErrors.FromError(err).Message}, models.RouteTeacherSetup)
		return models.ClassContext{}, false
	}
	return cc, true
}
