package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/Bakhromov-02/task-management/docs"
	"github.com/Bakhromov-02/task-management/internal/api/handler"
	"github.com/Bakhromov-02/task-management/internal/api/middleware"
	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

// Dependencies holds everything NewRouter wires into the routes.
type Dependencies struct {
	Resolver  middleware.IdentityResolver
	Access    *auth.AccessController
	Auth      ports.AuthService
	Tasks     ports.TaskService
	Analytics ports.AnalyticsService

	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter  ports.RateLimiter
	GeneralLimit middleware.RateLimitConfig
	AuthLimit    middleware.RateLimitConfig

	HealthChecks []handler.HealthCheck
	Logger       zerolog.Logger

	// Registerer and Gatherer default to the prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestContext())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(requestLogger(deps.Logger))

	// --- Probes, metrics and docs (no auth required) ---
	health := handler.NewHealthHandler(deps.HealthChecks...)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/api-docs/*", echoSwagger.WrapHandler)

	// Subgroups copy the parent's middleware when created, so the general
	// limit must be in place before they are.
	api := e.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(middleware.RateLimit(deps.RateLimiter, deps.GeneralLimit, deps.Logger))
	}
	authGroup := api.Group("/auth")
	if deps.RateLimiter != nil {
		authGroup.Use(middleware.RateLimit(deps.RateLimiter, deps.AuthLimit, deps.Logger))
	}

	authn := middleware.Authenticate(deps.Resolver)
	authHandler := handler.NewAuthHandler(deps.Auth)
	taskHandler := handler.NewTaskHandler(deps.Tasks)
	analyticsHandler := handler.NewAnalyticsHandler(deps.Analytics)

	registerOperations(authGroup, authn, deps.Access, []Operation{
		{Name: "auth.register", Method: http.MethodPost, Path: "/register", Public: true, Handler: authHandler.Register},
		{Name: "auth.register_admin", Method: http.MethodPost, Path: "/register/admin", Roles: []domain.Role{domain.RoleAdmin}, Handler: authHandler.RegisterAdmin},
		{Name: "auth.login", Method: http.MethodPost, Path: "/login", Public: true, Handler: authHandler.Login},
		{Name: "auth.refresh", Method: http.MethodPost, Path: "/refresh", Public: true, Handler: authHandler.Refresh},
		{Name: "auth.profile", Method: http.MethodGet, Path: "/profile", Handler: authHandler.Profile},
		{Name: "auth.list_users", Method: http.MethodGet, Path: "/users", Roles: []domain.Role{domain.RoleAdmin}, Handler: authHandler.ListUsers},
	})

	registerOperations(api.Group("/tasks"), authn, deps.Access, []Operation{
		{Name: "tasks.list", Method: http.MethodGet, Path: "", Scoped: true, Handler: taskHandler.List},
		{Name: "tasks.create", Method: http.MethodPost, Path: "", Scoped: true, Handler: taskHandler.Create},
		{Name: "tasks.get", Method: http.MethodGet, Path: "/:id", Scoped: true, Handler: taskHandler.Get},
		{Name: "tasks.update", Method: http.MethodPatch, Path: "/:id", Scoped: true, Handler: taskHandler.Update},
		{Name: "tasks.delete", Method: http.MethodDelete, Path: "/:id", Scoped: true, Handler: taskHandler.Delete},
	})

	registerOperations(api.Group("/analytics"), authn, deps.Access, []Operation{
		{Name: "analytics.report", Method: http.MethodGet, Path: "", Roles: []domain.Role{domain.RoleAdmin}, Handler: analyticsHandler.Report},
		{Name: "analytics.user_stats", Method: http.MethodGet, Path: "/user-stats", Scoped: true, Handler: analyticsHandler.UserStats},
	})

	return e
}

// requestLogger writes one access log line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
