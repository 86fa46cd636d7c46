package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/zhengyingxiong/starweb/internal/domain"
)

type stubResolver struct {
	identity domain.Identity
	err      error

	gotToken string
	gotType  string
}

func (s *stubResolver) ResolveToken(_ context.Context, token, expectedType string) (domain.Identity, error) {
	s.gotToken = token
	s.gotType = expectedType
	return s.identity, s.err
}

func runBearerAuth(t *testing.T, resolver *stubResolver, authorization string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	h := BearerAuth(resolver, &mockLogger{})(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec, reached
}

func TestBearerAuth_ValidToken(t *testing.T) {
	resolver := &stubResolver{identity: domain.Identity{ID: "u-1", Username: "alice", IsActive: true}}

	rec, reached := runBearerAuth(t, resolver, "Bearer good-token")

	if !reached {
		t.Fatal("handler was not reached")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if resolver.gotToken != "good-token" {
		t.Fatalf("unexpected token handed to resolver: %q", resolver.gotToken)
	}
	if resolver.gotType != domain.TokenTypeAccess {
		t.Fatalf("expected access token type, got %q", resolver.gotType)
	}
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	rec, reached := runBearerAuth(t, &stubResolver{}, "")

	if reached {
		t.Fatal("handler must not run without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestBearerAuth_WrongScheme(t *testing.T) {
	rec, reached := runBearerAuth(t, &stubResolver{}, "Basic dXNlcjpwYXNz")

	if reached {
		t.Fatal("handler must not run with a non-bearer scheme")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestBearerAuth_InvalidToken(t *testing.T) {
	resolver := &stubResolver{err: domain.ErrTokenInvalid}

	rec, reached := runBearerAuth(t, resolver, "Bearer bad-token")

	if reached {
		t.Fatal("handler must not run with an invalid token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestBearerAuth_DisabledAccountIsForbidden(t *testing.T) {
	resolver := &stubResolver{err: domain.ErrAccountDisabled}

	rec, reached := runBearerAuth(t, resolver, "Bearer token")

	if reached {
		t.Fatal("handler must not run for a disabled account")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["error"] != domain.ErrAccountDisabled.Error() {
		t.Fatalf("unexpected error body: %q", body["error"])
	}
}

func TestIdentityFrom(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if _, ok := IdentityFrom(c); ok {
		t.Fatal("expected no identity on a fresh context")
	}

	want := domain.Identity{ID: "u-1", Username: "alice"}
	c.Set(identityContextKey, want)

	got, ok := IdentityFrom(c)
	if !ok {
		t.Fatal("expected identity to be present")
	}
	if got != want {
		t.Fatalf("unexpected identity: %+v", got)
	}
}
