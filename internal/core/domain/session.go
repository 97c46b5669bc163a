package domain

// SessionState is the lifecycle state of the process-wide session.
//
// Initializing → {Authenticated, Unauthenticated}, with LoggingIn as a
// transient sub-state while a credential exchange is in flight.
type SessionState string

const (
	StateInitializing    SessionState = "initializing"
	StateAuthenticated   SessionState = "authenticated"
	StateUnauthenticated SessionState = "unauthenticated"
	StateLoggingIn       SessionState = "logging_in"
)

// Session is a point-in-time snapshot of the session state handed to
// read-only observers. User and Stats are copies; mutating them does not
// affect the session.
type Session struct {
	State           SessionState `json:"state"`
	IsLoading       bool         `json:"is_loading"`
	IsAuthenticated bool         `json:"is_authenticated"`
	User            *User        `json:"user,omitempty"`
	Stats           *UserStats   `json:"stats,omitempty"`
}

// Role returns the authenticated user's role, or the empty Role when no user
// is resolved.
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}
