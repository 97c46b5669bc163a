package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
)

type stubSessionService struct {
	snapshot     domain.Session
	loginFn      func(ctx context.Context, email, password string) error
	logoutCalls  int
	updateFn     func(ctx context.Context, patch domain.ProfileUpdate) bool
	permissionFn func(ctx context.Context) domain.GradingPermission
	increments   int
}

func (s *stubSessionService) CheckAuthStatus(context.Context) domain.Session { return s.snapshot }

func (s *stubSessionService) Login(ctx context.Context, email, password string) error {
	return s.loginFn(ctx, email, password)
}

func (s *stubSessionService) Logout(context.Context) { s.logoutCalls++ }

func (s *stubSessionService) RefreshUser(context.Context) domain.Session { return s.snapshot }

func (s *stubSessionService) UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) bool {
	return s.updateFn(ctx, patch)
}

func (s *stubSessionService) CheckGradingPermission(ctx context.Context) domain.GradingPermission {
	return s.permissionFn(ctx)
}

func (s *stubSessionService) IncrementGradingCount(context.Context) { s.increments++ }

func (s *stubSessionService) Snapshot() domain.Session { return s.snapshot }

func newSessionEcho(stub *stubSessionService) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	h := NewSessionHandler(stub)
	e.POST("/session/login", h.Login)
	e.POST("/session/logout", h.Logout)
	e.GET("/session", h.Current)
	e.PUT("/session/profile", h.UpdateProfile)
	e.GET("/session/permission", h.Permission)
	e.POST("/session/increment-grading", h.IncrementGrading)
	return e
}

func authedSnapshot() domain.Session {
	return domain.Session{
		State:           domain.StateAuthenticated,
		IsAuthenticated: true,
		User:            &domain.User{ID: 7, Email: "prof@example.edu", Role: domain.RoleTeacher},
	}
}

func TestSessionLogin_Success(t *testing.T) {
	stub := &stubSessionService{
		snapshot: authedSnapshot(),
		loginFn: func(_ context.Context, email, password string) error {
			if email != "prof@example.edu" || password != "pw" {
				t.Fatalf("unexpected credentials %s %s", email, password)
			}
			return nil
		},
	}
	e := newSessionEcho(stub)

	req := httptest.NewRequest(http.MethodPost, "/session/login",
		strings.NewReader(`{"email":"prof@example.edu","password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if !resp.IsAuthenticated || resp.User == nil || resp.User.Role != domain.RoleTeacher {
		t.Fatalf("unexpected snapshot %+v", resp)
	}
}

func TestSessionLogin_InvalidCredentials(t *testing.T) {
	stub := &stubSessionService{
		loginFn: func(context.Context, string, string) error {
			return domain.ErrInvalidCredentials
		},
	}
	e := newSessionEcho(stub)

	req := httptest.NewRequest(http.MethodPost, "/session/login",
		strings.NewReader(`{"email":"prof@example.edu","password":"bad"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionLogin_ValidationRejectsMissingEmail(t *testing.T) {
	stub := &stubSessionService{
		loginFn: func(context.Context, string, string) error {
			t.Fatalf("login must not run with an invalid payload")
			return nil
		},
	}
	e := newSessionEcho(stub)

	req := httptest.NewRequest(http.MethodPost, "/session/login",
		strings.NewReader(`{"password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSessionLogout_AlwaysSucceeds(t *testing.T) {
	stub := &stubSessionService{snapshot: domain.Session{State: domain.StateUnauthenticated}}
	e := newSessionEcho(stub)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("logout %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	if stub.logoutCalls != 2 {
		t.Fatalf("expected 2 logout calls, got %d", stub.logoutCalls)
	}
}

func TestSessionProfile_FailureIs400(t *testing.T) {
	stub := &stubSessionService{
		updateFn: func(context.Context, domain.ProfileUpdate) bool { return false },
	}
	e := newSessionEcho(stub)

	req := httptest.NewRequest(http.MethodPut, "/session/profile",
		strings.NewReader(`{"bio":"essay grader"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSessionPermission_DenialStillRenders200(t *testing.T) {
	stub := &stubSessionService{
		permissionFn: func(context.Context) domain.GradingPermission {
			return domain.GradingPermission{Reason: "not authenticated"}
		},
	}
	e := newSessionEcho(stub)

	req := httptest.NewRequest(http.MethodGet, "/session/permission", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var perm domain.GradingPermission
	if err := json.Unmarshal(rec.Body.Bytes(), &perm); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if perm.CanGrade || perm.Reason == "" {
		t.Fatalf("expected denial with reason, got %+v", perm)
	}
}

func TestSessionIncrement_Accepted(t *testing.T) {
	stub := &stubSessionService{snapshot: authedSnapshot()}
	e := newSessionEcho(stub)

	req := httptest.NewRequest(http.MethodPost, "/session/increment-grading", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if stub.increments != 1 {
		t.Fatalf("expected one increment, got %d", stub.increments)
	}
}
