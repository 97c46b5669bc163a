// Package guard decides whether a protected view may be rendered for the
// current session. The decision is a pure function of the session snapshot
// and the route's role requirements, so it is testable without any HTTP
// machinery; the api/middleware package maps decisions onto responses.
package guard

import "github.com/gradeflow/grading-gateway/internal/core/domain"

// Result enumerates the four possible outcomes of a guard evaluation.
type Result int

const (
	// Loading: the session is still initializing; render a placeholder and
	// never redirect; redirecting before the session settles causes loops.
	Loading Result = iota
	// RedirectToLogin: authentication required but absent; send the caller
	// to the login flow, preserving the current path as a return URL.
	RedirectToLogin
	// Allow: render the protected content.
	Allow
	// Deny: authenticated but the role is not permitted; render a denial
	// naming required vs actual roles.
	Deny
)

// Input is everything a guard decision depends on.
type Input struct {
	IsLoading       bool
	RequireAuth     bool
	IsAuthenticated bool
	Role            domain.Role
	// AllowedRoles empty means any authenticated role is accepted.
	AllowedRoles []domain.Role
}

// Decision is the evaluation outcome plus the context a denial view needs.
type Decision struct {
	Result        Result
	RequiredRoles []domain.Role
	ActualRole    domain.Role
}

// Evaluate resolves the decision table:
//
//	loading                          → Loading
//	auth required, unauthenticated   → RedirectToLogin
//	auth required, role permitted    → Allow
//	auth required, role not in set   → Deny
//	auth not required                → Allow
func Evaluate(in Input) Decision {
	if in.IsLoading {
		return Decision{Result: Loading}
	}
	if !in.RequireAuth {
		return Decision{Result: Allow}
	}
	if !in.IsAuthenticated {
		return Decision{Result: RedirectToLogin}
	}
	if len(in.AllowedRoles) == 0 {
		return Decision{Result: Allow, ActualRole: in.Role}
	}
	for _, r := range in.AllowedRoles {
		if r == in.Role {
			return Decision{Result: Allow, ActualRole: in.Role}
		}
	}
	return Decision{Result: Deny, RequiredRoles: in.AllowedRoles, ActualRole: in.Role}
}
