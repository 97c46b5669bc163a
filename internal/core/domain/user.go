package domain

import "time"

// Role is the closed set of roles the grading backend assigns to users.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleGrader  Role = "grader"
)

// Valid reports whether r is one of the four enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleAdmin, RoleStudent, RoleGrader:
		return true
	}
	return false
}

// User is the identity record returned by the backend's /auth/me endpoint.
// It is absent until a bearer token has been confirmed.
type User struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	Role             Role       `json:"role"`
	Institution      string     `json:"institution,omitempty"`
	Department       string     `json:"department,omitempty"`
	Bio              string     `json:"bio,omitempty"`
	ProfilePicture   string     `json:"profile_picture,omitempty"`
	GradingCount     int        `json:"grading_count"`
	FreeGradingsUsed int        `json:"free_gradings_used"`
	PremiumActive    bool       `json:"premium_active"`
	IsActive         bool       `json:"is_active"`
	IsVerified       bool       `json:"is_verified"`
	CreatedAt        time.Time  `json:"created_at"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
}

// UserStats is the backend-computed usage summary. It is always refetched
// together with User and never derived locally, so quota counts cannot drift
// from the backend-authoritative values.
type UserStats struct {
	TotalGradings         int       `json:"total_gradings"`
	FreeGradingsRemaining int       `json:"free_gradings_remaining"`
	PremiumActive         bool      `json:"premium_active"`
	Role                  Role      `json:"role"`
	MemberSince           time.Time `json:"member_since"`
}

// GradingPermission is the ephemeral result of a can-grade query. It is never
// cached; callers must treat CanGrade=false as the safe default.
type GradingPermission struct {
	CanGrade              bool   `json:"can_grade"`
	FreeGradingsRemaining int    `json:"free_gradings_remaining"`
	PremiumActive         bool   `json:"premium_active"`
	Reason                string `json:"reason,omitempty"`
}

// ProfileUpdate is a partial User sent to the backend's profile endpoint.
// Nil fields are left untouched server-side.
type ProfileUpdate struct {
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	Institution    *string `json:"institution,omitempty"`
	Department     *string `json:"department,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}
