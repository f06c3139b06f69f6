package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

const identityKey = "identity"

// SetIdentity stores the resolved identity on the echo context.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity stored by Authenticate, or nil when the
// request was not authenticated.
func IdentityFrom(c echo.Context) *domain.Identity {
	id, ok := c.Get(identityKey).(domain.Identity)
	if !ok {
		return nil
	}
	return &id
}

const scopedKey = "ownership_scoped"

// MarkScoped flags the request as running an operation declared
// ownership-scoped. Handlers of scoped resources refuse to run without it.
func MarkScoped() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetScoped(c)
			return next(c)
		}
	}
}

// SetScoped marks c as ownership-scoped.
func SetScoped(c echo.Context) {
	c.Set(scopedKey, true)
}

// IsScoped reports whether the operation serving c was declared scoped.
func IsScoped(c echo.Context) bool {
	scoped, _ := c.Get(scopedKey).(bool)
	return scoped
}
