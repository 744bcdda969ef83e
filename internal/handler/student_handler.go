package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-request-api/internal/middleware"
	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/response"
)

const maxHistoryDays = 30

type snapshotService interface {
	StudentToday(session *models.Session) models.StudentTodaySnapshot
	StudentHistory(session *models.Session, days int) models.StudentHistorySnapshot
	StudentDashboard(session *models.Session) models.StudentDashboardSnapshot
}

// StudentHandler serves the student's read-only attendance views.
type StudentHandler struct {
	snapshots snapshotService
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(snapshots snapshotService) *StudentHandler {
	return &StudentHandler{snapshots: snapshots}
}

// Dashboard godoc
// @Summary Student dashboard
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *StudentHandler) Dashboard(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	snapshot := h.snapshots.StudentDashboard(session)
	middleware.SetSource(c, snapshot.Source)
	response.JSON(c, http.StatusOK, snapshot, metaOrEmpty(c))
}

// Today godoc
// @Summary Today's attendance
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/today-attendance [get]
func (h *StudentHandler) Today(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	snapshot := h.snapshots.StudentToday(session)
	middleware.SetSource(c, snapshot.Source)
	response.JSON(c, http.StatusOK, snapshot, metaOrEmpty(c))
}

// History godoc
// @Summary Attendance history
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param days query int false "Number of past days (default 3, max 30)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/attendance-history [get]
func (h *StudentHandler) History(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryDays {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "days must be between 1 and 30"))
			return
		}
		days = parsed
	}
	snapshot := h.snapshots.StudentHistory(session, days)
	middleware.SetSource(c, snapshot.Source)
	response.JSON(c, http.StatusOK, snapshot, metaOrEmpty(c))
}
