package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

type recordingAudit struct {
	denials []domain.AccessDenial
}

func (r *recordingAudit) RecordDenial(_ context.Context, d domain.AccessDenial) {
	r.denials = append(r.denials, d)
}

func TestRequireRoles_Allows(t *testing.T) {
	access := auth.NewAccessController(nil, zerolog.Nop())
	c, rec := newContext("")
	SetIdentity(c, domain.Identity{ID: "a1", Role: domain.RoleAdmin})

	called := false
	handler := RequireRoles(access, "analytics.report", domain.RoleAdmin)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected next to run with 200, got called=%v code=%d", called, rec.Code)
	}
}

func TestRequireRoles_Forbids(t *testing.T) {
	audit := &recordingAudit{}
	access := auth.NewAccessController(audit, zerolog.Nop())
	c, _ := newContext("")
	SetIdentity(c, domain.Identity{ID: "u1", Role: domain.RoleUser})

	handler := RequireRoles(access, "analytics.report", domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	var authzErr *auth.AuthorizationError
	if !errors.As(err, &authzErr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if len(audit.denials) != 1 || audit.denials[0].Operation != "analytics.report" {
		t.Fatalf("expected one audited denial, got %+v", audit.denials)
	}
}

func TestRequireRoles_WithoutIdentity(t *testing.T) {
	access := auth.NewAccessController(nil, zerolog.Nop())
	c, _ := newContext("")

	handler := RequireRoles(access, "tasks.list")(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	var ce *auth.CredentialError
	if !errors.As(err, &ce) || ce.Reason != auth.ReasonNotAuthenticated {
		t.Fatalf("expected NOT_AUTHENTICATED, got %v", err)
	}
}
