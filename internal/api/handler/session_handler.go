package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gradeflow/grading-gateway/internal/api/metrics"
	"github.com/gradeflow/grading-gateway/internal/core/domain"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
)

// SessionHandler exposes the session lifecycle to the front end.
type SessionHandler struct {
	sessions ports.SessionService
}

func NewSessionHandler(sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Login handles POST /session/login.
//
// @Summary      Exchange credentials for an authenticated session
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  domain.Session
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.sessions.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()

		status, msg := http.StatusBadGateway, "login failed"
		var ue *domain.UpstreamError
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			status, msg = http.StatusUnauthorized, "invalid credentials"
		case errors.As(err, &ue):
			status = ue.Status
			if ue.Detail != "" {
				msg = ue.Detail
			}
		}
		return c.JSON(status, map[string]string{"error": msg})
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, h.sessions.Snapshot())
}

// Logout handles POST /session/logout. Idempotent.
//
// @Summary      Tear down the session
// @Tags         session
// @Produce      json
// @Success      200  {object}  logoutResponse
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c.Request().Context())
	return c.JSON(http.StatusOK, logoutResponse{Status: "ok", Redirect: "/"})
}

// Current handles GET /session. Returns the snapshot observers render from.
//
// @Summary      Current session snapshot
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.Session
// @Router       /session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.Snapshot())
}

// Refresh handles POST /session/refresh. Re-validates against the backend.
//
// @Summary      Re-validate the stored token and refresh user state
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.Session
// @Router       /session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	s := h.sessions.RefreshUser(c.Request().Context())
	if s.IsAuthenticated {
		metrics.SessionRefreshesTotal.WithLabelValues("authenticated").Inc()
	} else {
		metrics.SessionRefreshesTotal.WithLabelValues("unauthenticated").Inc()
	}
	return c.JSON(http.StatusOK, s)
}

// UpdateProfile handles PUT /session/profile.
//
// @Summary      Apply a partial profile update
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      profileUpdateRequest  true  "Fields to update"
// @Success      200   {object}  domain.Session
// @Failure      400   {object}  errorResponse
// @Router       /session/profile [put]
func (h *SessionHandler) UpdateProfile(c echo.Context) error {
	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if ok := h.sessions.UpdateProfile(c.Request().Context(), req.toPatch()); !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "profile update failed")
	}
	return c.JSON(http.StatusOK, h.sessions.Snapshot())
}

// Permission handles GET /session/permission. Always 200: failure modes are
// folded into a denial object, never an error response.
//
// @Summary      Backend-authoritative grading permission
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.GradingPermission
// @Router       /session/permission [get]
func (h *SessionHandler) Permission(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.CheckGradingPermission(c.Request().Context()))
}

// IncrementGrading handles POST /session/increment-grading.
//
// @Summary      Record one grading against the user's quota
// @Tags         session
// @Produce      json
// @Success      202  {object}  domain.Session
// @Router       /session/increment-grading [post]
func (h *SessionHandler) IncrementGrading(c echo.Context) error {
	h.sessions.IncrementGradingCount(c.Request().Context())
	return c.JSON(http.StatusAccepted, h.sessions.Snapshot())
}

// GradingOverview handles GET /grading/overview, a guarded view for grading
// staff summarizing usage from the current snapshot.
//
// @Summary      Usage overview for grading staff
// @Tags         grading
// @Produce      json
// @Success      200  {object}  gradingOverviewResponse
// @Failure      403  {object}  errorResponse
// @Router       /grading/overview [get]
func (h *SessionHandler) GradingOverview(c echo.Context) error {
	s := h.sessions.Snapshot()
	if s.User == nil {
		// The guard admits only authenticated sessions; a nil user here
		// means the session was torn down mid-request.
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	resp := gradingOverviewResponse{
		Email:         s.User.Email,
		Role:          s.User.Role,
		GradingCount:  s.User.GradingCount,
		PremiumActive: s.User.PremiumActive,
	}
	if s.Stats != nil {
		resp.FreeGradingsRemaining = s.Stats.FreeGradingsRemaining
		resp.GradingCount = s.Stats.TotalGradings
	}
	return c.JSON(http.StatusOK, resp)
}
