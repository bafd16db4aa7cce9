package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emedica/emedica-api/internal/config"
	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/middleware"
	"github.com/emedica/emedica-api/internal/service"
	"github.com/emedica/emedica-api/pkg/auth"
	"github.com/emedica/emedica-api/pkg/metrics"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Collector  *metrics.Collector
	JWTManager *auth.JWTManager

	AuthSvc         *service.AuthService
	AuditSvc        *service.AuditService
	OTPSvc          *service.OTPService
	DirectorySvc    *service.DirectoryService
	AppointmentSvc  *service.AppointmentService
	RecordSvc       *service.RecordService
	PrescriptionSvc *service.PrescriptionService
	AnalyticsSvc    *service.AnalyticsService
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics(deps.Collector))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     deps.Config.CORS.AllowedMethods,
		AllowHeaders:     deps.Config.CORS.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           deps.Config.CORS.MaxAge,
	}))

	globalLimiter := middleware.NewRateLimiter(
		deps.Config.RateLimit.RequestsPerSecond,
		deps.Config.RateLimit.BurstSize,
	)
	r.Use(globalLimiter.Handler())

	authHandler := NewAuthHandler(deps.AuthSvc, deps.OTPSvc, deps.Config.OTP, deps.Collector)
	navHandler := NewNavHandler(deps.DirectorySvc, deps.AuditSvc, deps.Collector)
	userHandler := NewUserHandler(deps.DirectorySvc)
	appointmentHandler := NewAppointmentHandler(deps.AppointmentSvc, deps.Collector)
	recordHandler := NewRecordHandler(deps.RecordSvc)
	prescriptionHandler := NewPrescriptionHandler(deps.PrescriptionSvc)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsSvc)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Config.App.Name,
			"version": deps.Config.App.Version,
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	// Credential endpoints sit behind the stricter per-IP limiter.
	authLimiter := middleware.NewAuthRateLimiter(deps.Config.RateLimit.AuthRequestsPerMinute)
	public := api.Group("/auth", authLimiter.Handler())
	{
		public.POST("/login", authHandler.Login)
		public.POST("/refresh", authHandler.Refresh)
		public.POST("/otp/request", authHandler.RequestOTP)
		public.POST("/otp/verify", authHandler.VerifyOTP)
	}

	protected := api.Group("")
	protected.Use(middleware.Authenticate(deps.JWTManager, deps.AuthSvc))
	{
		protected.POST("/auth/logout", authHandler.Logout)

		protected.GET("/me", navHandler.Me)
		protected.GET("/navigation", navHandler.Navigation)
		protected.GET("/navigation/authorize", navHandler.Authorize)

		protected.GET("/appointments", appointmentHandler.List)
		protected.POST("/appointments", appointmentHandler.Create)
		protected.GET("/appointments/:id", appointmentHandler.Get)
		protected.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)

		protected.GET("/medical-records", recordHandler.List)
		protected.GET("/medical-records/:id", recordHandler.Get)
		protected.POST("/medical-records",
			middleware.RequireRoles(deps.Collector, deps.Logger, domain.RoleDoctor),
			recordHandler.Create)

		protected.GET("/prescriptions", prescriptionHandler.List)
		protected.POST("/prescriptions",
			middleware.RequireRoles(deps.Collector, deps.Logger, domain.RoleDoctor),
			prescriptionHandler.Create)
		protected.POST("/prescriptions/:id/refill", prescriptionHandler.Refill)

		admin := protected.Group("", middleware.RequireRoles(
			deps.Collector, deps.Logger, domain.RoleAdmin, domain.RoleSuperAdmin))
		{
			admin.GET("/users", userHandler.List)
			admin.GET("/analytics", analyticsHandler.HospitalOverview)
		}

		// Individual profiles are reachable by their owner too; the service
		// enforces that.
		protected.GET("/users/:id", userHandler.Get)

		protected.POST("/users",
			middleware.RequireRoles(deps.Collector, deps.Logger, domain.RoleSuperAdmin),
			userHandler.Create)
	}

	return r
}
