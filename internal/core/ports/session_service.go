package ports

import (
	"context"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
)

// SessionService owns the process-wide session lifecycle. It is the only
// writer of the current User/UserStats; every other component observes
// snapshots.
type SessionService interface {
	// CheckAuthStatus validates any stored token against the backend and
	// settles the session into Authenticated or Unauthenticated. A rejected
	// token is cleared. Runs once automatically at startup.
	CheckAuthStatus(ctx context.Context) domain.Session

	// Login performs the credential exchange, persists the returned token,
	// fires a best-effort last-login update, then re-runs CheckAuthStatus.
	// On failure no state is mutated.
	Login(ctx context.Context, email, password string) error

	// Logout clears the token and the in-memory user/stats. Idempotent.
	Logout(ctx context.Context)

	// RefreshUser re-runs CheckAuthStatus; call after any mutation that may
	// change server-side user state.
	RefreshUser(ctx context.Context) domain.Session

	// UpdateProfile sends a partial profile update. Returns false without a
	// network call when no token is stored, and false on backend failure
	// (local state untouched). On success the session is refreshed.
	UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) bool

	// CheckGradingPermission queries the backend-authoritative permission.
	// Every failure mode collapses into a denial with a non-empty Reason;
	// callers gate a paid action on this and must get the safe default.
	CheckGradingPermission(ctx context.Context) domain.GradingPermission

	// IncrementGradingCount fires the backend increment (no-op without a
	// token) and refreshes the session regardless of the call's outcome, so
	// counts always resync from the backend.
	IncrementGradingCount(ctx context.Context)

	// Snapshot returns the current session state without touching the
	// backend.
	Snapshot() domain.Session
}
