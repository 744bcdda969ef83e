package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/logger"
	"github.com/noah-isme/attendance-request-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the resolved *models.Session.
const ContextSessionKey = "session"

// SessionResolver validates access tokens and answers role membership.
type SessionResolver interface {
	ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error)
	HasRole(ctx context.Context, principalID string, role models.Role) (bool, error)
}

// RequireRole gates a route group on a valid session holding role. Membership is queried on
// every request. A missing or invalid session is sent to the login route of role, a session
// without the role is sent to the landing page. The handler chain never runs in either case.
func RequireRole(resolver SessionResolver, role models.Role) gin.HandlerFunc {
	return gate(resolver, role)
}

// Authenticated gates a route on a valid session regardless of role.
func Authenticated(resolver SessionResolver) gin.HandlerFunc {
	return gate(resolver, "")
}

func gate(resolver SessionResolver, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthenticated(c, role, err)
			return
		}

		claims, err := resolver.ValidateToken(c.Request.Context(), token)
		if err != nil {
			unauthenticated(c, role, err)
			return
		}

		if role != "" {
			ok, err := resolver.HasRole(c.Request.Context(), claims.UserID, role)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
			if !ok {
				response.ErrorNotice(c,
					appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s required", role)),
					&response.Notice{Title: "Access Denied", Description: fmt.Sprintf("You don't have %s access", role)},
					models.RouteLanding,
				)
				c.Abort()
				return
			}
		}

		session := &models.Session{
			PrincipalID: claims.UserID,
			Email:       claims.Email,
			FullName:    claims.FullName,
			Role:        role,
			TokenID:     claims.ID,
		}
		if claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Time
		}

		c.Set(ContextSessionKey, session)
		c.Set(logger.PrincipalKey, claims.UserID)
		c.Next()
	}
}

// CurrentSession returns the session stored by the gate.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok && session != nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing session")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func unauthenticated(c *gin.Context, role models.Role, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		response.Error(c, appErr)
		c.Abort()
		return
	}
	if appErr.Status != http.StatusUnauthorized {
		appErr = appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session")
	}
	response.ErrorNotice(c, appErr,
		&response.Notice{Title: "Session expired", Description: "Please log in to continue"},
		models.LoginRoute(role),
	)
	c.Abort()
}
