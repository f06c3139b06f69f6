package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// IdentityResolver resolves the Authorization header of a request.
type IdentityResolver interface {
	Resolve(ctx context.Context, header string) (domain.Identity, error)
}

// Authenticate resolves the caller's identity from the Authorization header
// and stores it on the context. Failures are returned to the HTTP error
// handler, which renders the reason code.
func Authenticate(resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := resolver.Resolve(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

// RequestContext copies the request id assigned by echo's RequestID
// middleware into the request context, where audit records pick it up.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(auth.ContextWithRequestID(req.Context(), id)))
			}
			return next(c)
		}
	}
}
