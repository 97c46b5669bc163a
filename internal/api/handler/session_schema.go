package handler

import "github.com/gradeflow/grading-gateway/internal/core/domain"

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type logoutResponse struct {
	Status string `json:"status"`
	// Redirect tells the front end where to navigate after teardown.
	Redirect string `json:"redirect"`
}

type profileUpdateRequest struct {
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	Institution    *string `json:"institution,omitempty"`
	Department     *string `json:"department,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty" validate:"omitempty,url"`
}

func (r profileUpdateRequest) toPatch() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Institution:    r.Institution,
		Department:     r.Department,
		Bio:            r.Bio,
		ProfilePicture: r.ProfilePicture,
	}
}

type gradingOverviewResponse struct {
	Email                 string      `json:"email"`
	Role                  domain.Role `json:"role"`
	GradingCount          int         `json:"grading_count"`
	FreeGradingsRemaining int         `json:"free_gradings_remaining,omitempty"`
	PremiumActive         bool        `json:"premium_active"`
}
