package middleware

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/gradeflow/grading-gateway/internal/api/metrics"
	"github.com/gradeflow/grading-gateway/internal/core/domain"
	"github.com/gradeflow/grading-gateway/internal/core/guard"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
)

// deniedResponse names the required and actual roles so the front end can
// render an explicit access-denied view.
type deniedResponse struct {
	Error         string        `json:"error"`
	RequiredRoles []domain.Role `json:"required_roles"`
	ActualRole    domain.Role   `json:"actual_role"`
}

// Guard gates a route on the session state. The decision itself lives in the
// guard package; this middleware only maps decisions onto HTTP:
//
//	Loading          → 503 with Retry-After (session still initializing)
//	RedirectToLogin  → 302 to loginPath, current path carried as return_to
//	Deny             → 403 naming required vs actual roles
//	Allow            → next handler
//
// An empty allowedRoles accepts any authenticated role.
func Guard(sessions ports.SessionService, loginPath string, allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := sessions.Snapshot()
			d := guard.Evaluate(guard.Input{
				IsLoading:       snap.IsLoading,
				RequireAuth:     true,
				IsAuthenticated: snap.IsAuthenticated,
				Role:            snap.Role(),
				AllowedRoles:    allowedRoles,
			})

			switch d.Result {
			case guard.Loading:
				metrics.GuardDecisionsTotal.WithLabelValues("loading").Inc()
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})

			case guard.RedirectToLogin:
				metrics.GuardDecisionsTotal.WithLabelValues("redirect").Inc()
				target := loginPath + "?return_to=" + url.QueryEscape(c.Request().RequestURI)
				return c.Redirect(http.StatusFound, target)

			case guard.Deny:
				metrics.GuardDecisionsTotal.WithLabelValues("deny").Inc()
				return c.JSON(http.StatusForbidden, deniedResponse{
					Error:         "access denied",
					RequiredRoles: d.RequiredRoles,
					ActualRole:    d.ActualRole,
				})
			}

			metrics.GuardDecisionsTotal.WithLabelValues("allow").Inc()
			return next(c)
		}
	}
}
