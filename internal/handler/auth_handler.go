package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, role models.Role, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, session *models.Session, meta models.LoginRequest) error
	Me(ctx context.Context, principalID string) (*models.PrincipalInfo, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// TeacherLogin godoc
// @Summary Teacher login
// @Description Authenticate by email and password; the principal must hold the teacher role
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/teacher/login [post]
func (h *AuthHandler) TeacherLogin(c *gin.Context) {
	h.login(c, models.RoleTeacher)
}

// StudentLogin godoc
// @Summary Student login
// @Description Authenticate by email and password; the principal must hold the student role
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/student/login [post]
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	h.login(c, models.RoleStudent)
}

func (h *AuthHandler) login(c *gin.Context, role models.Role) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), role, req)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status == http.StatusForbidden {
			response.ErrorNotice(c, appErr, &response.Notice{Title: "Access Denied", Description: appErr.Message}, "")
			return
		}
		response.Error(c, err)
		return
	}

	response.Flash(c, http.StatusOK, res, &response.Notice{Title: "Welcome back", Variant: response.NoticeSuccess}, models.HomeRoute(role))
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the access token until it expires
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), session, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Flash(c, http.StatusOK, nil, &response.Notice{Title: "Logged out", Variant: response.NoticeSuccess}, models.RouteLanding)
}

// Me godoc
// @Summary Get current principal
// @Description Returns the authenticated principal with every role it holds
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	info, err := h.service.Me(c.Request.Context(), session.PrincipalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info)
}
