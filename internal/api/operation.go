package api

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/Bakhromov-02/task-management/internal/api/middleware"
	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// Operation declares one route together with its access requirements.
//
// Public operations skip authentication. Roles lists the roles admitted;
// an empty list admits any authenticated identity. Scoped marks operations
// whose queries are narrowed to the caller's own records; handlers of
// owner-scoped resources fail with handler.ErrUndeclaredScope without it.
type Operation struct {
	Name    string
	Method  string
	Path    string
	Public  bool
	Roles   []domain.Role
	Scoped  bool
	Handler echo.HandlerFunc
}

func (op Operation) validate() error {
	if op.Name == "" || op.Method == "" || op.Handler == nil {
		return fmt.Errorf("operation %s %s: name, method and handler are required", op.Method, op.Path)
	}
	if op.Public && op.Scoped {
		return fmt.Errorf("operation %s: public operations cannot be scoped", op.Name)
	}
	if op.Public && len(op.Roles) > 0 {
		return fmt.Errorf("operation %s: public operations cannot require roles", op.Name)
	}
	return nil
}

// registerOperations mounts ops on g. Non-public operations run behind
// authn and the access controller. A misdeclared operation panics, so a
// broken route table never serves traffic.
func registerOperations(g *echo.Group, authn echo.MiddlewareFunc, access *auth.AccessController, ops []Operation) {
	for _, op := range ops {
		if err := op.validate(); err != nil {
			panic(err)
		}
		if op.Public {
			g.Add(op.Method, op.Path, op.Handler)
			continue
		}
		mw := []echo.MiddlewareFunc{authn, middleware.RequireRoles(access, op.Name, op.Roles...)}
		if op.Scoped {
			mw = append(mw, middleware.MarkScoped())
		}
		g.Add(op.Method, op.Path, op.Handler, mw...)
	}
}
