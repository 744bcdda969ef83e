package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-request-api/internal/models"
	"github.com/noah-isme/attendance-request-api/internal/service"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
	"github.com/noah-isme/attendance-request-api/pkg/logger"
)

type stubResolver struct {
	claims    *models.JWTClaims
	tokenErr  error
	roles     map[models.Role]bool
	roleErr   error
	roleCalls int
}

func (s *stubResolver) ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	if s.tokenErr != nil {
		return nil, s.tokenErr
	}
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func (s *stubResolver) HasRole(ctx context.Context, principalID string, role models.Role) (bool, error) {
	s.roleCalls++
	if s.roleErr != nil {
		return false, s.roleErr
	}
	return s.roles[role], nil
}

type gateEnvelope struct {
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
	Notice *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Variant     string `json:"variant"`
	} `json:"notice"`
	Redirect string `json:"redirect"`
}

func newGateRouter(resolver SessionResolver, role models.Role, handlerCalls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", RequireRole(resolver, role), func(c *gin.Context) {
		*handlerCalls++
		session, ok := CurrentSession(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"principal": session.PrincipalID, "role": session.Role, "logged": c.GetString(logger.PrincipalKey)})
	})
	return router
}

func serveGate(router *gin.Engine, authorization string) (*httptest.ResponseRecorder, gateEnvelope) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var env gateEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestRequireRoleAllowsMember(t *testing.T) {
	resolver := &stubResolver{
		claims: &models.JWTClaims{UserID: "t-1", RegisteredClaims: jwt.RegisteredClaims{ID: "jti"}},
		roles:  map[models.Role]bool{models.RoleTeacher: true},
	}
	calls := 0
	router := newGateRouter(resolver, models.RoleTeacher, &calls)

	rec, _ := serveGate(router, "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"principal":"t-1","role":"teacher","logged":"t-1"}`, rec.Body.String())
	assert.Equal(t, 1, calls)

	serveGate(router, "Bearer good")
	assert.Equal(t, 2, resolver.roleCalls)
}

func TestRequireRoleDeniesStudentOnTeacherRoute(t *testing.T) {
	resolver := &stubResolver{
		claims: &models.JWTClaims{UserID: "s-1"},
		roles:  map[models.Role]bool{models.RoleStudent: true},
	}
	calls := 0
	router := newGateRouter(resolver, models.RoleTeacher, &calls)

	rec, env := serveGate(router, "Bearer good")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "Access Denied", env.Notice.Title)
	assert.Equal(t, "You don't have teacher access", env.Notice.Description)
	assert.Equal(t, "destructive", env.Notice.Variant)
	assert.Equal(t, models.RouteLanding, env.Redirect)
	assert.Zero(t, calls)
}

func TestRequireRoleRedirectsMissingSessionToLogin(t *testing.T) {
	resolver := &stubResolver{}
	cases := []struct {
		role     models.Role
		header   string
		redirect string
	}{
		{models.RoleTeacher, "", models.RouteTeacherLogin},
		{models.RoleStudent, "", models.RouteStudentLogin},
		{models.RoleStudent, "Basic abc", models.RouteStudentLogin},
		{models.RoleTeacher, "Bearer forged", models.RouteTeacherLogin},
	}
	for _, tc := range cases {
		calls := 0
		rec, env := serveGate(newGateRouter(resolver, tc.role, &calls), tc.header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.header)
		assert.Equal(t, tc.redirect, env.Redirect)
		assert.Zero(t, calls)
	}
	assert.Zero(t, resolver.roleCalls)
}

func TestRequireRoleRevokedToken(t *testing.T) {
	resolver := &stubResolver{tokenErr: appErrors.ErrTokenRevoked}
	calls := 0
	rec, env := serveGate(newGateRouter(resolver, models.RoleStudent, &calls), "Bearer good")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrTokenRevoked.Code, env.Error.Code)
	assert.Equal(t, models.RouteStudentLogin, env.Redirect)
	assert.Zero(t, calls)
}

func TestRequireRoleStoreFailure(t *testing.T) {
	resolver := &stubResolver{
		claims:  &models.JWTClaims{UserID: "t-1"},
		roleErr: appErrors.Wrap(errors.New("db down"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check role"),
	}
	calls := 0
	rec, env := serveGate(newGateRouter(resolver, models.RoleTeacher, &calls), "Bearer good")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInternal.Code, env.Error.Code)
	assert.Zero(t, calls)
}

func TestAuthenticatedSkipsRoleLookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolver := &stubResolver{claims: &models.JWTClaims{UserID: "u-1"}}
	router := gin.New()
	router.GET("/me", Authenticated(resolver), func(c *gin.Context) {
		session, _ := CurrentSession(c)
		c.String(http.StatusOK, session.PrincipalID)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer good")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", rec.Body.String())
	assert.Zero(t, resolver.roleCalls)
}

func TestResponseMetaAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics), WithResponseMeta())
	router.GET("/cached", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetSource(c, models.SnapshotSourceLabel)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cached", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, "placeholder", meta["source"])
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}
