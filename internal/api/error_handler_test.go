package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/api/handler"
	"github.com/Bakhromov-02/task-management/internal/api/metrics"
	"github.com/Bakhromov-02/task-management/internal/api/middleware"
	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"credential error", &auth.CredentialError{Reason: auth.ReasonTokenExpired}, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"authorization error", &auth.AuthorizationError{Operation: "analytics.report"}, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"store unavailable", fmt.Errorf("%w: dial tcp: refused", auth.ErrCredentialStoreUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"rate limited", middleware.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"bad request", echo.NewHTTPError(http.StatusBadRequest, "title is required"), http.StatusBadRequest, "BAD_REQUEST"},
		{"task not found", fmt.Errorf("get task: %w", domain.ErrTaskNotFound), http.StatusNotFound, "TASK_NOT_FOUND"},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest, "INVALID_ID"},
		{"invalid task", domain.ErrInvalidTask, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"user exists", domain.ErrUserExists, http.StatusConflict, "USER_EXISTS"},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), rec)

			h(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var resp handler.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Code != tt.wantBody {
				t.Fatalf("expected code %q, got %q", tt.wantBody, resp.Code)
			}
			if resp.Error == "" {
				t.Fatalf("expected an error message")
			}
		})
	}
}

func TestHTTPErrorHandler_DoesNotLeakInternals(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(fmt.Errorf("%w: mongo password=hunter2", auth.ErrCredentialStoreUnavailable), c)

	var resp handler.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Error != "service temporarily unavailable" {
		t.Fatalf("unexpected message: %q", resp.Error)
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.NoContent(http.StatusNoContent)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected committed status to stand, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %s", rec.Body.String())
	}
}

func TestHTTPErrorHandler_CountsAuthFailuresByReason(t *testing.T) {
	e := echo.New()
	counter := metrics.AuthFailuresTotal.WithLabelValues(string(auth.ReasonNoToken))
	before := testutil.ToFloat64(counter)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), httptest.NewRecorder())
	NewHTTPErrorHandler(zerolog.Nop())(&auth.CredentialError{Reason: auth.ReasonNoToken}, c)

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected auth failure counter to grow by 1, got %v", got)
	}
}
