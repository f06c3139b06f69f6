package ports

import (
	"context"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// AuthResult is returned by operations that establish a session.
type AuthResult struct {
	Token        string
	RefreshToken string
	User         *domain.User
}

// ListUsersResult is a page of users.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*AuthResult, error)
	CreateAdmin(ctx context.Context, actor domain.Identity, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Profile(ctx context.Context, id domain.Identity) (*domain.User, error)
	ListUsers(ctx context.Context, q domain.UserQuery) (*ListUsersResult, error)
}
