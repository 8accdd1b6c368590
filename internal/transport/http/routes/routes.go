package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/infra/config"
	"github.com/savoria/orderdesk/internal/infra/security"
	"github.com/savoria/orderdesk/internal/transport/http/handlers"
	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.AuthService
	Registration *usecase.RegistrationService
	Passwords    *usecase.PasswordService
	Reauth       *usecase.ReauthService
	Reset        *usecase.ResetService
	Audit        *usecase.AuditService
	Users        *usecase.UserService
	Menu         *usecase.MenuService
	Orders       *usecase.OrderService
	Dashboard    *usecase.DashboardService
	Authorizer   *usecase.Authorizer
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Tokens      *security.TokenManager
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.CORSOrigins))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	} else {
		r.Use(metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Tokens)
	authz := deps.Services.Authorizer

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Services.Auth)
		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration)
		passwordHandler := handlers.NewPasswordHandler(deps.Services.Passwords, deps.Services.Reauth)
		resetHandler := handlers.NewResetHandler(deps.Services.Reset)
		auditHandler := handlers.NewAuditHandler(deps.Services.Audit)
		userHandler := handlers.NewUserHandler(deps.Services.Users)
		menuHandler := handlers.NewMenuHandler(deps.Services.Menu)
		orderHandler := handlers.NewOrderHandler(deps.Services.Orders, authz)
		dashboardHandler := handlers.NewDashboardHandler(deps.Services.Dashboard)

		authGroup := api.Group("/auth")
		authGroup.POST("/login", withRateLimit(deps, loginRule(deps), authHandler.Login)...)
		authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		authGroup.POST("/reauth", authMiddleware, passwordHandler.Reauth)
		authGroup.POST("/register", withRateLimit(deps, registerRule(deps), registrationHandler.Register)...)

		passwordGroup := api.Group("/password")
		passwordGroup.POST("/change", authMiddleware, passwordHandler.ChangePassword)
		passwordGroup.GET("/questions", passwordHandler.Questions)
		passwordGroup.POST("/question", authMiddleware, passwordHandler.SetupQuestion)

		resetGroup := passwordGroup.Group("/reset")
		if rule := resetRule(deps); rule != nil {
			resetGroup.Use(deps.RateLimiter.RateLimit(*rule))
		}
		resetGroup.POST("/request", resetHandler.Request)
		resetGroup.POST("/answer", resetHandler.Answer)
		resetGroup.POST("/complete", resetHandler.Complete)

		auditGroup := api.Group("/audit")
		auditGroup.Use(authMiddleware, middleware.RequireAccess(authz, usecase.ResourceAudit, usecase.ActionRead))
		auditGroup.GET("", auditHandler.List)

		userGroup := api.Group("/users")
		userGroup.Use(authMiddleware)
		userGroup.GET("", middleware.RequireAccess(authz, usecase.ResourceUsers, usecase.ActionRead), userHandler.List)
		userGroup.GET("/:id", middleware.RequireAccess(authz, usecase.ResourceUsers, usecase.ActionRead), userHandler.Get)
		userGroup.PUT("/:id/role", middleware.RequireAccess(authz, usecase.ResourceUsers, usecase.ActionManage), userHandler.ChangeRole)
		userGroup.PUT("/:id/active", middleware.RequireAccess(authz, usecase.ResourceUsers, usecase.ActionManage), userHandler.SetActive)

		menuGroup := api.Group("/menu")
		menuGroup.Use(authMiddleware)
		menuGroup.GET("", middleware.RequireAccess(authz, usecase.ResourceMenu, usecase.ActionRead), menuHandler.List)
		menuGroup.GET("/:id", middleware.RequireAccess(authz, usecase.ResourceMenu, usecase.ActionRead), menuHandler.Get)
		menuGroup.POST("", middleware.RequireAccess(authz, usecase.ResourceMenu, usecase.ActionManage), menuHandler.Create)
		menuGroup.PUT("/:id", middleware.RequireAccess(authz, usecase.ResourceMenu, usecase.ActionManage), menuHandler.Update)
		menuGroup.DELETE("/:id", middleware.RequireAccess(authz, usecase.ResourceMenu, usecase.ActionManage), menuHandler.Delete)

		orderGroup := api.Group("/orders")
		orderGroup.Use(authMiddleware)
		orderGroup.POST("", middleware.RequireAccess(authz, usecase.ResourceOrders, usecase.ActionCreate), orderHandler.Place)
		orderGroup.GET("", middleware.RequireAccess(authz, usecase.ResourceOrders, usecase.ActionRead), orderHandler.List)
		orderGroup.GET("/:id", middleware.RequireAccess(authz, usecase.ResourceOrders, usecase.ActionRead), orderHandler.Get)
		orderGroup.PUT("/:id/status", middleware.RequireAccess(authz, usecase.ResourceOrders, usecase.ActionManage), orderHandler.ChangeStatus)

		dashboardGroup := api.Group("/dashboard")
		dashboardGroup.Use(authMiddleware, middleware.RequireAccess(authz, usecase.ResourceDashboard, usecase.ActionRead))
		dashboardGroup.GET("", dashboardHandler.Summary)
	}

	return r
}

func withRateLimit(deps Dependencies, rule *middleware.RateLimitRule, handler gin.HandlerFunc) []gin.HandlerFunc {
	if rule == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(*rule), handler}
}

func loginRule(deps Dependencies) *middleware.RateLimitRule {
	return ipRule(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts, time.Minute)
}

func registerRule(deps Dependencies) *middleware.RateLimitRule {
	return ipRule(deps, "auth_register_ip", deps.Config.RateLimit.RegisterMaxAttempts, time.Hour)
}

func resetRule(deps Dependencies) *middleware.RateLimitRule {
	return ipRule(deps, "password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts, time.Hour)
}

func ipRule(deps Dependencies, name string, limit int, fallbackWindow time.Duration) *middleware.RateLimitRule {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = fallbackWindow
	}

	return &middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}
}
