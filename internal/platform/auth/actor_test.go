package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestActorFromContext_Empty(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	if ok {
		t.Error("expected no actor in empty context")
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	tokenStr := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "Dr. Asha",
		Roles: []string{"doctor"},
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Actor
	handler := Middleware(testKey)(func(c echo.Context) error {
		got, _ = ActorFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "user-42" {
		t.Errorf("expected actor user-42, got %q", got.ID)
	}
	if !got.HasRole("doctor") {
		t.Error("expected doctor role")
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware(testKey)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_BadToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware(testKey)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestDevMiddleware_DefaultActor(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Actor
	handler := DevMiddleware()(func(c echo.Context) error {
		got, _ = ActorFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "dev-user" || !got.HasRole("admin") {
		t.Errorf("unexpected dev actor: %+v", got)
	}
}

func TestDevMiddleware_HeaderOverride(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor", "nurse-7")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Actor
	handler := DevMiddleware()(func(c echo.Context) error {
		got, _ = ActorFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "nurse-7" {
		t.Errorf("expected nurse-7, got %q", got.ID)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(actor Actor, roles ...string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler := RequireRole(roles...)(func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})
		return handler(c)
	}

	if err := run(Actor{ID: "a", Roles: []string{"admin"}}, "admin"); err != nil {
		t.Errorf("admin should pass: %v", err)
	}
	err := run(Actor{ID: "b", Roles: []string{"nurse"}}, "admin")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for wrong role, got %v", err)
	}
}
