package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/zhengyingxiong/starweb/internal/domain"
)

type stubPredicate struct {
	err error
}

func (s stubPredicate) Evaluate(context.Context, domain.Identity) error { return s.err }

func runGuard(t *testing.T, pred stubPredicate, withIdentity bool) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/users/u-1/activate", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if withIdentity {
		c.Set(identityContextKey, domain.Identity{ID: "u-1", Username: "alice", IsActive: true})
	}

	reached := false
	h := Guard(pred)(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec, reached
}

func TestGuard_AllowsWhenPredicateAccepts(t *testing.T) {
	rec, reached := runGuard(t, stubPredicate{}, true)

	if !reached {
		t.Fatal("handler was not reached")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestGuard_DenialBecomes403WithReason(t *testing.T) {
	pred := stubPredicate{err: &domain.PermissionDeniedError{Reason: "requires all of the following permissions: user.manage"}}

	rec, reached := runGuard(t, pred, true)

	if reached {
		t.Fatal("handler must not run when denied")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["error"] != "requires all of the following permissions: user.manage" {
		t.Fatalf("unexpected reason: %q", body["error"])
	}
}

func TestGuard_MissingIdentityIs401(t *testing.T) {
	rec, reached := runGuard(t, stubPredicate{}, false)

	if reached {
		t.Fatal("handler must not run without an identity")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestGuard_InfrastructureErrorIs500(t *testing.T) {
	pred := stubPredicate{err: errors.New("dynamodb down")}

	rec, reached := runGuard(t, pred, true)

	if reached {
		t.Fatal("handler must not run on evaluation failure")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["error"] != "internal error" {
		t.Fatalf("store errors must not leak: %q", body["error"])
	}
}
