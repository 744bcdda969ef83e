package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/models"
	"github.com/noah-isme/attendance-request-api/pkg/response"
)

var landing = dto.LandingView{
	Product: "FaceScan Attendance",
	Tagline: "Attendance corrections and leave requests, reviewed by the teacher who owns them",
	Features: []string{
		"Manual override of missed or incorrect attendance",
		"Student requests panel for corrections and leave",
		"Real-time attendance status with complete history",
		"Medical and event leave requests with proof",
	},
	Steps: []string{
		"Face recognition marks the student present",
		"Quick request when attendance was missed",
		"Teacher approves or rejects the request",
	},
	Logins: []string{models.RouteTeacherLogin, models.RouteStudentLogin},
}

// LandingHandler serves the public landing payload.
type LandingHandler struct{}

// NewLandingHandler constructs a LandingHandler.
func NewLandingHandler() *LandingHandler {
	return &LandingHandler{}
}

// Landing godoc
// @Summary Landing page content
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router / [get]
func (h *LandingHandler) Landing(c *gin.Context) {
	response.JSON(c, http.StatusOK, landing)
}
