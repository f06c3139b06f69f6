package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/api/handler"
	"github.com/Bakhromov-02/task-management/internal/api/metrics"
	"github.com/Bakhromov-02/task-management/internal/api/middleware"
	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// statusClientClosedRequest is logged when the client went away mid-request.
const statusClientClosedRequest = 499

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders authentication failures as 401 with their reason code.
//   - Renders role denials as 403 INSUFFICIENT_PERMISSIONS.
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorResponse) {
	var (
		he    *echo.HTTPError
		cred  *auth.CredentialError
		authz *auth.AuthorizationError
	)

	switch {
	case errors.As(err, &cred):
		metrics.AuthFailuresTotal.WithLabelValues(string(cred.Reason)).Inc()
		return http.StatusUnauthorized, handler.ErrorResponse{Error: cred.Reason.Message(), Code: string(cred.Reason)}

	case errors.As(err, &authz):
		metrics.AccessDenialsTotal.WithLabelValues(authz.Operation).Inc()
		return http.StatusForbidden, handler.ErrorResponse{Error: authz.Reason().Message(), Code: string(authz.Reason())}

	case errors.Is(err, auth.ErrCredentialStoreUnavailable):
		metrics.CredentialStoreErrorsTotal.Inc()
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("credential store unavailable")
		return http.StatusServiceUnavailable, handler.ErrorResponse{Error: "service temporarily unavailable", Code: "SERVICE_UNAVAILABLE"}

	case errors.Is(err, middleware.ErrRateLimited):
		return http.StatusTooManyRequests, handler.ErrorResponse{Error: err.Error(), Code: "RATE_LIMITED"}

	case errors.As(err, &he):
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Int("status", he.Code).Msg("http error")
		}
		return he.Code, handler.ErrorResponse{Error: httpErrorMessage(he), Code: statusCode(he.Code)}
	}

	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, handler.ErrorResponse{Error: "task not found", Code: "TASK_NOT_FOUND"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, handler.ErrorResponse{Error: "user not found", Code: "USER_NOT_FOUND"}
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, handler.ErrorResponse{Error: "invalid id", Code: "INVALID_ID"}
	case errors.Is(err, domain.ErrInvalidTask),
		errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, handler.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, handler.ErrorResponse{Error: "user already exists", Code: "USER_EXISTS"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, handler.ErrorResponse{Error: "invalid credentials", Code: "INVALID_CREDENTIALS"}
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, handler.ErrorResponse{Error: "request canceled", Code: "REQUEST_CANCELED"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, handler.ErrorResponse{Error: "request timed out", Code: "TIMEOUT"}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
}

func httpErrorMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	return fmt.Sprintf("%v", he.Message)
}

// statusCode turns an HTTP status into an upper snake case code,
// e.g. 404 becomes NOT_FOUND.
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
