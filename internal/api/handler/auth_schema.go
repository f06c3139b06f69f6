package handler

import (
	"time"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type listUsersRequest struct {
	Page  int    `query:"page"  validate:"omitempty,min=1"`
	Limit int    `query:"limit" validate:"omitempty,min=1"`
	Email string `query:"email"`
	Role  string `query:"role"  validate:"omitempty,oneof=user admin"`
}

type userResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type authResponse struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`
}

type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type profileResponse struct {
	User *userResponse `json:"user"`
}

type createAdminResponse struct {
	User      *userResponse `json:"user"`
	CreatedBy string        `json:"created_by"`
}

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type listUsersResponse struct {
	Items      []*userResponse `json:"items"`
	Pagination pagination      `json:"pagination"`
}

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
