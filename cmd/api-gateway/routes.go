package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/middleware"
	"github.com/noah-isme/attendance-request-api/internal/models"
	"github.com/noah-isme/attendance-request-api/pkg/config"
	"github.com/noah-isme/attendance-request-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-request-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-request-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = cfg.Attachments.MaxFileSizeBytes + 1<<20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", app.metricsHandler.Health)
	r.GET("/ready", app.metricsHandler.Ready)
	r.GET("/metrics", app.metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", app.metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/", app.landingHandler.Landing)

	auth := api.Group("/auth")
	auth.POST("/teacher/login", app.authHandler.TeacherLogin)
	auth.POST("/student/login", app.authHandler.StudentLogin)
	auth.POST("/logout", middleware.Authenticated(app.auth), app.authHandler.Logout)
	auth.GET("/me", middleware.Authenticated(app.auth), app.authHandler.Me)

	teacher := api.Group("/teacher", middleware.RequireRole(app.auth, models.RoleTeacher))
	teacher.GET("/setup", app.teacherHandler.Setup)
	teacher.POST("/setup", app.teacherHandler.ConfirmSetup)
	teacher.GET("/dashboard", app.teacherHandler.Dashboard)
	teacher.GET("/attendance-list", app.teacherHandler.AttendanceList)

	requests := teacher.Group("/requests")
	requests.GET("", app.reviewHandler.Pending)
	requests.GET("/export", app.reviewHandler.Export)
	requests.GET("/:id", app.reviewHandler.Detail)
	requests.GET("/:id/attachment", app.reviewHandler.Attachment)
	requests.POST("/:id/approve", app.reviewHandler.Approve)
	requests.POST("/:id/reject", app.reviewHandler.Reject)
	requests.PATCH("/:id", app.reviewHandler.UpdateStatus)

	student := api.Group("/student", middleware.RequireRole(app.auth, models.RoleStudent))
	student.GET("/dashboard", app.studentHandler.Dashboard)
	student.GET("/today-attendance", app.studentHandler.Today)
	student.GET("/attendance-history", app.studentHandler.History)
	student.GET("/requests", app.requestHandler.History)
	student.GET("/request-attendance", app.requestHandler.CorrectionForm)
	student.POST("/request-attendance", app.requestHandler.SubmitCorrection)
	student.GET("/request-leave", app.requestHandler.LeaveForm)
	student.POST("/request-leave", app.requestHandler.SubmitLeave)

	return r
}
