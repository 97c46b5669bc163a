package guard

import (
	"testing"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
)

func TestEvaluate_LoadingNeverRedirects(t *testing.T) {
	for _, authed := range []bool{true, false} {
		d := Evaluate(Input{
			IsLoading:       true,
			RequireAuth:     true,
			IsAuthenticated: authed,
			AllowedRoles:    []domain.Role{domain.RoleTeacher},
		})
		if d.Result != Loading {
			t.Fatalf("expected Loading while initializing (authed=%v), got %v", authed, d.Result)
		}
	}
}

func TestEvaluate_UnauthenticatedRedirects(t *testing.T) {
	d := Evaluate(Input{RequireAuth: true, IsAuthenticated: false})
	if d.Result != RedirectToLogin {
		t.Fatalf("expected RedirectToLogin, got %v", d.Result)
	}
}

func TestEvaluate_NoAuthRequiredAlwaysAllows(t *testing.T) {
	d := Evaluate(Input{RequireAuth: false, IsAuthenticated: false})
	if d.Result != Allow {
		t.Fatalf("expected Allow, got %v", d.Result)
	}
}

func TestEvaluate_RoleInSetAllows(t *testing.T) {
	d := Evaluate(Input{
		RequireAuth:     true,
		IsAuthenticated: true,
		Role:            domain.RoleAdmin,
		AllowedRoles:    []domain.Role{domain.RoleTeacher, domain.RoleAdmin},
	})
	if d.Result != Allow {
		t.Fatalf("expected Allow for admin, got %v", d.Result)
	}
}

func TestEvaluate_EmptyRoleSetAllowsAnyRole(t *testing.T) {
	d := Evaluate(Input{
		RequireAuth:     true,
		IsAuthenticated: true,
		Role:            domain.RoleStudent,
	})
	if d.Result != Allow {
		t.Fatalf("expected Allow with unrestricted roles, got %v", d.Result)
	}
}

func TestEvaluate_RoleOutsideSetDenies(t *testing.T) {
	d := Evaluate(Input{
		RequireAuth:     true,
		IsAuthenticated: true,
		Role:            domain.RoleStudent,
		AllowedRoles:    []domain.Role{domain.RoleTeacher},
	})
	if d.Result != Deny {
		t.Fatalf("expected Deny for student, got %v", d.Result)
	}
	if d.ActualRole != domain.RoleStudent {
		t.Fatalf("denial should carry the actual role, got %q", d.ActualRole)
	}
	if len(d.RequiredRoles) != 1 || d.RequiredRoles[0] != domain.RoleTeacher {
		t.Fatalf("denial should carry the required roles, got %v", d.RequiredRoles)
	}
}
