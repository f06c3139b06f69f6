package auth

import "github.com/Bakhromov-02/task-management/internal/core/domain"

// ScopedTaskFilter is a task filter that has been narrowed to what an identity
// may see. Its zero value is unusable; only Scope produces a valid one.
type ScopedTaskFilter struct {
	filter domain.TaskFilter
	scoped bool
}

// Filter returns the underlying terms, or ErrUnscopedFilter for a value not
// built by Scope.
func (s ScopedTaskFilter) Filter() (domain.TaskFilter, error) {
	if !s.scoped {
		return domain.TaskFilter{}, ErrUnscopedFilter
	}
	return s.filter, nil
}

// Scope narrows base to the tasks identity may access. Admins get base
// unchanged, with OwnerID acting as an optional target user. For everyone
// else OwnerID is overwritten with the identity's own id.
func Scope(identity domain.Identity, base domain.TaskFilter) ScopedTaskFilter {
	if identity.IsAdmin() {
		return ScopedTaskFilter{filter: base, scoped: true}
	}
	if identity.ID == "" {
		return ScopedTaskFilter{}
	}
	base.OwnerID = identity.ID
	return ScopedTaskFilter{filter: base, scoped: true}
}
