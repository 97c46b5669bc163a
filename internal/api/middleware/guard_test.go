package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
)

// snapshotService satisfies ports.SessionService for guard tests; only
// Snapshot is consulted by the middleware.
type snapshotService struct {
	snapshot domain.Session
}

func (s *snapshotService) CheckAuthStatus(context.Context) domain.Session { return s.snapshot }
func (s *snapshotService) Login(context.Context, string, string) error    { return nil }
func (s *snapshotService) Logout(context.Context)                         {}
func (s *snapshotService) RefreshUser(context.Context) domain.Session     { return s.snapshot }
func (s *snapshotService) UpdateProfile(context.Context, domain.ProfileUpdate) bool {
	return false
}
func (s *snapshotService) CheckGradingPermission(context.Context) domain.GradingPermission {
	return domain.GradingPermission{}
}
func (s *snapshotService) IncrementGradingCount(context.Context) {}
func (s *snapshotService) Snapshot() domain.Session              { return s.snapshot }

func serveGuarded(t *testing.T, snapshot domain.Session, roles ...domain.Role) (*httptest.ResponseRecorder, *bool) {
	t.Helper()
	e := echo.New()
	rendered := false
	mw := Guard(&snapshotService{snapshot: snapshot}, "/login", roles...)
	e.GET("/grading/overview", func(c echo.Context) error {
		rendered = true
		return c.NoContent(http.StatusOK)
	}, mw)

	req := httptest.NewRequest(http.MethodGet, "/grading/overview", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, &rendered
}

func TestGuard_LoadingNeverRedirects(t *testing.T) {
	rec, rendered := serveGuarded(t, domain.Session{
		State:     domain.StateInitializing,
		IsLoading: true,
	}, domain.RoleTeacher)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while loading, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "" {
		t.Fatalf("loading must not redirect, got Location %q", loc)
	}
	if *rendered {
		t.Fatalf("protected handler must not run while loading")
	}
}

func TestGuard_UnauthenticatedRedirectsWithReturnURL(t *testing.T) {
	rec, rendered := serveGuarded(t, domain.Session{State: domain.StateUnauthenticated})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if *rendered {
		t.Fatalf("protected handler must not run unauthenticated")
	}

	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	if err != nil {
		t.Fatalf("invalid redirect target: %v", err)
	}
	if loc.Path != "/login" {
		t.Fatalf("expected /login, got %q", loc.Path)
	}
	if ret := loc.Query().Get("return_to"); !strings.HasPrefix(ret, "/grading/overview") {
		t.Fatalf("return_to must preserve the current path, got %q", ret)
	}
}

func TestGuard_WrongRoleRendersDenial(t *testing.T) {
	rec, rendered := serveGuarded(t, domain.Session{
		State:           domain.StateAuthenticated,
		IsAuthenticated: true,
		User:            &domain.User{Role: domain.RoleStudent},
	}, domain.RoleTeacher)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if *rendered {
		t.Fatalf("protected handler must never render for a disallowed role")
	}

	var denial deniedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &denial); err != nil {
		t.Fatalf("invalid denial body: %v", err)
	}
	if denial.ActualRole != domain.RoleStudent {
		t.Fatalf("denial must name the actual role, got %q", denial.ActualRole)
	}
	if len(denial.RequiredRoles) != 1 || denial.RequiredRoles[0] != domain.RoleTeacher {
		t.Fatalf("denial must name the required roles, got %v", denial.RequiredRoles)
	}
}

func TestGuard_AllowedRolePasses(t *testing.T) {
	rec, rendered := serveGuarded(t, domain.Session{
		State:           domain.StateAuthenticated,
		IsAuthenticated: true,
		User:            &domain.User{Role: domain.RoleGrader},
	}, domain.RoleTeacher, domain.RoleGrader)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !*rendered {
		t.Fatalf("protected handler should have run")
	}
}

func TestGuard_EmptyRoleSetAcceptsAnyAuthenticatedRole(t *testing.T) {
	rec, rendered := serveGuarded(t, domain.Session{
		State:           domain.StateAuthenticated,
		IsAuthenticated: true,
		User:            &domain.User{Role: domain.RoleStudent},
	})

	if rec.Code != http.StatusOK || !*rendered {
		t.Fatalf("expected pass-through for any authenticated role, got %d", rec.Code)
	}
}
