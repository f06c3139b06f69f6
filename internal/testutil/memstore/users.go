// Package memstore provides in-memory implementations of the repository
// ports for tests. They enforce the same contracts as the Mongo adapters:
// ids are ObjectID hex strings and task queries require a scoped filter.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

type Users struct {
	mu   sync.Mutex
	byID map[string]*domain.User

	// Err, when set, is returned by every call.
	Err error
}

func NewUsers() *Users {
	return &Users{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (s *Users) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.byID {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	c := cloneUser(user)
	c.ID = primitive.NewObjectID().Hex()
	s.byID[c.ID] = c
	return cloneUser(c), nil
}

// Put stores user as-is, keeping its id.
func (s *Users) Put(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[user.ID] = cloneUser(user)
}

// SetRole changes a stored user's role.
func (s *Users) SetRole(id string, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		u.Role = role
	}
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Users) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := cloneUser(u)
	c.PasswordHash = ""
	return c, nil
}

func (s *Users) List(ctx context.Context, q domain.UserQuery) ([]*domain.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var matched []*domain.User
	for _, u := range s.byID {
		if q.Email != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(q.Email)) {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		c := cloneUser(u)
		c.PasswordHash = ""
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	page := domain.Page{Number: q.Page, Limit: q.Limit}.Normalize()
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Users) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.byID {
		if role == "" || u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *Users) snapshot() map[string]domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.User, len(s.byID))
	for id, u := range s.byID {
		out[id] = *u
	}
	return out
}

func paginate[T any](items []T, page domain.Page) []T {
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
