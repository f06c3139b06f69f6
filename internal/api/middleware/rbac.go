package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// RequireRoles admits the request when the identity stored by Authenticate
// holds one of roles. An empty role list admits any authenticated identity.
// Denials are logged and audited by the access controller.
func RequireRoles(access *auth.AccessController, operation string, roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := access.AuthorizeOperation(c.Request().Context(), operation, IdentityFrom(c), roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}
