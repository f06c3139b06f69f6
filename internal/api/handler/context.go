package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Bakhromov-02/task-management/internal/api/middleware"
	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// currentIdentity returns the identity resolved by the Authenticate
// middleware. A handler mounted without it fails closed.
func currentIdentity(c echo.Context) (domain.Identity, error) {
	id := middleware.IdentityFrom(c)
	if id == nil {
		return domain.Identity{}, &auth.CredentialError{Reason: auth.ReasonNotAuthenticated}
	}
	return *id, nil
}

// ErrUndeclaredScope is returned when a handler of owner-scoped resources is
// mounted on an operation not declared Scoped.
var ErrUndeclaredScope = errors.New("operation serves owner-scoped resources but is not declared scoped")

// scopedIdentity is currentIdentity for handlers whose queries are narrowed
// to the caller's own records.
func scopedIdentity(c echo.Context) (domain.Identity, error) {
	id, err := currentIdentity(c)
	if err != nil {
		return domain.Identity{}, err
	}
	if !middleware.IsScoped(c) {
		return domain.Identity{}, ErrUndeclaredScope
	}
	return id, nil
}

// bindAndValidate decodes the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
