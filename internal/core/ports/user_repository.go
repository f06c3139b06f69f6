package ports

import (
	"context"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// UserRepository is the credential store.
//
// FindByID returns the record without its password hash; FindByEmail
// includes the hash so credentials can be checked. Both return
// domain.ErrUserNotFound when no record matches and wrap any other failure.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, q domain.UserQuery) ([]*domain.User, int64, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// PasswordHasher hashes and compares passwords with a one-way salted hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, candidate string) bool
}
