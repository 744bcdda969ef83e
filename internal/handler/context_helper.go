package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-request-api/internal/middleware"
	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/response"
)

// sessionFromContext returns the gate's session or writes a 401 and reports false.
func sessionFromContext(c *gin.Context) (*models.Session, bool) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return session, true
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func metaOrEmpty(c *gin.Context) map[string]interface{} {
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return meta
}
