package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/handler"
	"github.com/noah-isme/siliya-electrical-api/internal/middleware"
	"github.com/noah-isme/siliya-electrical-api/internal/models"
	"github.com/noah-isme/siliya-electrical-api/pkg/config"
	"github.com/noah-isme/siliya-electrical-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/siliya-electrical-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/siliya-electrical-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	metricsHandler := handler.NewMetricsHandler(app.metrics, app.db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(app.auth)
	userHandler := handler.NewUserHandler(app.userSvc)
	repairHandler := handler.NewRepairHandler(app.repairs, app.transitions)
	enrollmentHandler := handler.NewEnrollmentHandler(app.enrollments, app.transitions)
	paymentHandler := handler.NewPaymentHandler(app.payments, app.transitions)
	courseHandler := handler.NewCourseHandler(app.courses)
	messageHandler := handler.NewMessageHandler(app.messages)
	dashboardHandler := handler.NewDashboardHandler(app.dashboard, cfg.Dashboard.RefreshInterval)
	transitionHandler := handler.NewTransitionHandler(app.transitions)

	api := r.Group(cfg.APIPrefix)
	authn := middleware.JWT(app.auth)
	admin := middleware.RequireRoles(models.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/logout", authn, authHandler.Logout)
	auth.POST("/change-password", authn, authHandler.ChangePassword)
	auth.GET("/profile", authn, authHandler.Profile)
	auth.PUT("/profile", authn, authHandler.UpdateProfile)
	auth.GET("/me", authn, authHandler.Me)

	courses := api.Group("/courses")
	courses.GET("", courseHandler.ListActive)
	courses.GET("/:id", middleware.OptionalJWT(app.auth), courseHandler.Get)
	courses.POST("", authn, admin, courseHandler.Create)
	courses.PUT("/:id", authn, admin, courseHandler.Update)
	courses.DELETE("/:id", authn, admin, courseHandler.Delete)

	repairs := api.Group("/repairs")
	repairs.GET("/:id/photos/:index", repairHandler.Photo)
	repairs.Use(authn)
	repairs.POST("", repairHandler.Create)
	repairs.GET("/mine", repairHandler.ListMine)
	repairs.GET("/export", admin, middleware.Audit(app.users, logr, models.AuditActionExport, "repair"), repairHandler.Export)
	repairs.GET("", admin, repairHandler.ListAll)
	repairs.GET("/:id", repairHandler.Get)
	repairs.PATCH("/:id", admin, repairHandler.Update)
	repairs.PATCH("/:id/status", admin, repairHandler.UpdateStatus)
	repairs.DELETE("/:id", admin, repairHandler.Delete)

	enrollments := api.Group("/enrollments", authn)
	enrollments.POST("", enrollmentHandler.Create)
	enrollments.GET("/mine", enrollmentHandler.ListMine)
	enrollments.GET("", admin, enrollmentHandler.ListAll)
	enrollments.GET("/:id", enrollmentHandler.Get)
	enrollments.PATCH("/:id/status", admin, enrollmentHandler.UpdateStatus)
	enrollments.PATCH("/:id/payment-status", admin, enrollmentHandler.UpdatePaymentStatus)
	enrollments.DELETE("/:id", admin, enrollmentHandler.Delete)

	payments := api.Group("/payments", authn)
	payments.POST("", paymentHandler.Create)
	payments.GET("/mine", paymentHandler.ListMine)
	payments.GET("", admin, paymentHandler.ListAll)
	payments.GET("/:id", paymentHandler.Get)
	payments.PATCH("/:id/status", admin, paymentHandler.UpdateStatus)
	payments.DELETE("/:id", admin, paymentHandler.Delete)

	messages := api.Group("/messages", authn)
	messages.POST("", messageHandler.Send)
	messages.GET("/mine", messageHandler.Mine)
	messages.PATCH("/mine/read", messageHandler.MarkMineRead)
	messages.GET("/conversations", admin, messageHandler.Conversations)
	messages.GET("/users/:userId", admin, messageHandler.History)
	messages.POST("/users/:userId", admin, messageHandler.Reply)
	messages.PATCH("/users/:userId/read", admin, messageHandler.MarkRead)

	users := api.Group("/users", authn, admin)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id/role", userHandler.UpdateRole)
	users.DELETE("/:id", userHandler.Delete)

	adminGroup := api.Group("/admin", authn, admin)
	adminGroup.GET("/dashboard", dashboardHandler.Admin)
	adminGroup.GET("/courses", courseHandler.ListAll)
	adminGroup.POST("/transitions", transitionHandler.Transition)
	adminGroup.GET("/metrics", metricsHandler.Snapshot)

	return r
}
