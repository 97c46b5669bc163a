package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	"github.com/gradeflow/grading-gateway/internal/api/handler"
	"github.com/gradeflow/grading-gateway/internal/api/middleware"
	"github.com/gradeflow/grading-gateway/internal/core/domain"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
)

// Deps carries everything the router wires together.
type Deps struct {
	Sessions  ports.SessionService
	Jobs      ports.JobBackend
	Store     ports.TokenStore
	LoginPath string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("grading_gateway"))

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	jobsHandler := handler.NewJobsHandler(deps.Jobs, deps.Log)

	// --- Session routes ---
	e.POST("/session/login", sessionHandler.Login)
	e.POST("/session/logout", sessionHandler.Logout)
	e.GET("/session", sessionHandler.Current)
	e.POST("/session/refresh", sessionHandler.Refresh)
	e.PUT("/session/profile", sessionHandler.UpdateProfile)
	e.GET("/session/permission", sessionHandler.Permission)
	e.POST("/session/increment-grading", sessionHandler.IncrementGrading)

	// --- Job proxy routes (stateless, independent of the session) ---
	e.GET("/canvas/jobs/:jobId", jobsHandler.JobStatus)
	e.GET("/canvas/jobs", jobsHandler.MissingJobID)
	e.POST("/canvas/post-grades/:jobId", jobsHandler.PostGrades)
	e.POST("/canvas/post-grades", jobsHandler.MissingJobID)

	// --- Guarded views ---
	grading := e.Group("/grading", middleware.Guard(deps.Sessions, deps.LoginPath,
		domain.RoleTeacher, domain.RoleAdmin, domain.RoleGrader))
	grading.GET("/overview", sessionHandler.GradingOverview)

	// --- Health probes and operational endpoints ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Store)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
