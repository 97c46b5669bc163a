package ports

import (
	"context"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
)

// IdentityClient is the session-facing slice of the grading backend's HTTP
// contract. All methods take the bearer token explicitly; the client holds no
// credential state.
//
// Non-success backend responses surface as *domain.UpstreamError; transport
// failures surface as plain errors.
type IdentityClient interface {
	// Login exchanges credentials for a bearer token via the backend's
	// form-encoded credential grant.
	Login(ctx context.Context, email, password string) (string, error)
	// CurrentUser confirms the token and returns the identity record.
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	// UserStats fetches the usage summary for the token's user.
	UserStats(ctx context.Context, token string) (*domain.UserStats, error)
	// RecordLogin updates the user's last-login timestamp. Best-effort.
	RecordLogin(ctx context.Context, token string) error
	// UpdateProfile applies a partial profile update.
	UpdateProfile(ctx context.Context, token string, patch domain.ProfileUpdate) error
	// GradingPermission asks the backend whether the user may grade.
	GradingPermission(ctx context.Context, token string) (*domain.GradingPermission, error)
	// IncrementGrading bumps the user's grading counter. Best-effort.
	IncrementGrading(ctx context.Context, token string) error
}

// RawResponse is a successful backend response relayed verbatim by the job
// proxy: status, content type, and body untouched.
type RawResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// JobBackend is the pass-through slice of the backend contract used by the
// job proxy. Implementations must tolerate multi-minute completion times for
// PostGrades (effective timeout ≥ 120 s).
type JobBackend interface {
	JobStatus(ctx context.Context, jobID string) (*RawResponse, error)
	PostGrades(ctx context.Context, jobID, canvasURL, apiKey string) (*RawResponse, error)
}
