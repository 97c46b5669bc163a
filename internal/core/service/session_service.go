package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
)

// SideCaller executes fire-and-forget calls off the critical path. Failures
// must be swallowed by the implementation; they never affect the operation
// that enqueued them.
type SideCaller interface {
	Enqueue(name string, call func(ctx context.Context) error)
}

// SessionManager implements ports.SessionService. It is the single writer of
// the process-wide session state.
//
// Concurrent identity-mutating operations are resolved with a generation
// counter: every CheckAuthStatus run captures the generation at start, and a
// run whose generation has been superseded (by a newer run or a logout)
// discards its result instead of overwriting fresher state.
type SessionManager struct {
	store   ports.TokenStore
	backend ports.IdentityClient
	side    SideCaller
	log     zerolog.Logger

	mu    sync.Mutex
	state domain.SessionState
	user  *domain.User
	stats *domain.UserStats
	gen   uint64
}

var _ ports.SessionService = (*SessionManager)(nil)

func NewSessionManager(store ports.TokenStore, backend ports.IdentityClient, side SideCaller, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		store:   store,
		backend: backend,
		side:    side,
		log:     log.With().Str("component", "session").Logger(),
		state:   domain.StateInitializing,
	}
}

// CheckAuthStatus validates the stored token and settles the session.
// The identity fetch always completes before the stats fetch begins; a stats
// failure is non-fatal and leaves the user authenticated without stats.
func (m *SessionManager) CheckAuthStatus(ctx context.Context) domain.Session {
	gen := m.beginCheck()

	token, err := m.store.Get(ctx)
	if err != nil {
		m.settle(gen, domain.StateUnauthenticated, nil, nil)
		return m.Snapshot()
	}

	user, err := m.backend.CurrentUser(ctx, token)
	if err != nil {
		m.log.Info().Err(err).Msg("stored token rejected, clearing")
		if cerr := m.store.Clear(ctx); cerr != nil {
			m.log.Warn().Err(cerr).Msg("failed to clear rejected token")
		}
		m.settle(gen, domain.StateUnauthenticated, nil, nil)
		return m.Snapshot()
	}

	stats, err := m.backend.UserStats(ctx, token)
	if err != nil {
		// Non-fatal: the user stays authenticated, stats stay absent.
		m.log.Warn().Err(err).Msg("stats fetch failed")
		stats = nil
	}

	m.settle(gen, domain.StateAuthenticated, user, stats)
	return m.Snapshot()
}

// Login exchanges credentials for a token. On any failure the session state
// observed by readers is exactly what it was before the call.
func (m *SessionManager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	prev := m.state
	m.state = domain.StateLoggingIn
	m.mu.Unlock()

	restore := func() {
		m.mu.Lock()
		if m.state == domain.StateLoggingIn {
			m.state = prev
		}
		m.mu.Unlock()
	}

	token, err := m.backend.Login(ctx, email, password)
	if err != nil {
		restore()
		return err
	}
	if err := m.store.Set(ctx, token); err != nil {
		restore()
		return err
	}

	// Best-effort: a failed last-login update never fails the login.
	m.side.Enqueue("record-login", func(ctx context.Context) error {
		return m.backend.RecordLogin(ctx, token)
	})

	m.CheckAuthStatus(ctx)
	return nil
}

// Logout clears the token and the in-memory session. Safe to call when
// already unauthenticated. Any in-flight CheckAuthStatus is invalidated.
func (m *SessionManager) Logout(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn().Err(err).Msg("token clear failed during logout")
	}
	m.mu.Lock()
	m.gen++
	m.state = domain.StateUnauthenticated
	m.user = nil
	m.stats = nil
	m.mu.Unlock()
}

func (m *SessionManager) RefreshUser(ctx context.Context) domain.Session {
	return m.CheckAuthStatus(ctx)
}

// UpdateProfile sends a partial update. Without a token it fails immediately
// and issues no network call.
func (m *SessionManager) UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) bool {
	token, err := m.store.Get(ctx)
	if err != nil {
		return false
	}
	if err := m.backend.UpdateProfile(ctx, token, patch); err != nil {
		m.log.Warn().Err(err).Msg("profile update rejected")
		return false
	}
	m.RefreshUser(ctx)
	return true
}

// CheckGradingPermission never propagates an error: downstream code gates a
// paid action on the result, so every failure collapses into a denial.
func (m *SessionManager) CheckGradingPermission(ctx context.Context) domain.GradingPermission {
	token, err := m.store.Get(ctx)
	if err != nil {
		return domain.GradingPermission{Reason: "not authenticated"}
	}
	perm, err := m.backend.GradingPermission(ctx, token)
	if err != nil {
		m.log.Warn().Err(err).Msg("permission check failed, denying by default")
		return domain.GradingPermission{Reason: "permission check unavailable, grading is disabled"}
	}
	return *perm
}

// IncrementGradingCount fires the backend increment and resynchronizes from
// the backend regardless of the outcome. The client never counts locally.
func (m *SessionManager) IncrementGradingCount(ctx context.Context) {
	token, err := m.store.Get(ctx)
	if err != nil {
		return
	}
	if err := m.backend.IncrementGrading(ctx, token); err != nil {
		m.log.Warn().Err(err).Msg("grading count increment failed")
	}
	m.RefreshUser(ctx)
}

// Snapshot returns a copy of the current session state.
func (m *SessionManager) Snapshot() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := domain.Session{
		State:           m.state,
		IsLoading:       m.state == domain.StateInitializing,
		IsAuthenticated: m.state == domain.StateAuthenticated,
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	if m.stats != nil {
		st := *m.stats
		s.Stats = &st
	}
	return s
}

// beginCheck opens a new generation, superseding any in-flight check.
func (m *SessionManager) beginCheck() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen
}

// settle applies a check's outcome unless a newer generation has started.
func (m *SessionManager) settle(gen uint64, state domain.SessionState, user *domain.User, stats *domain.UserStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		m.log.Debug().Uint64("gen", gen).Uint64("current", m.gen).Msg("discarding stale auth check result")
		return
	}
	m.state = state
	m.user = user
	m.stats = stats
}
