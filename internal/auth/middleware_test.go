package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avelez/clipvault-be/internal/models"
)

// gateTest runs a request through the middleware and reports whether the
// downstream handler was reached and with which claims.
func gateTest(t *testing.T, m *Manager, authorization string) (*httptest.ResponseRecorder, *Claims, bool) {
	t.Helper()

	var gotClaims *Claims
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	m.Middleware()(next).ServeHTTP(rec, req)
	return rec, gotClaims, reached
}

func TestMiddleware_NoHeader(t *testing.T) {
	t.Parallel()

	m := NewManager("secret", time.Hour)
	rec, _, reached := gateTest(t, m, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reached {
		t.Fatal("handler must not run without a token")
	}
}

func TestMiddleware_MalformedToken(t *testing.T) {
	t.Parallel()

	m := NewManager("secret", time.Hour)
	rec, _, reached := gateTest(t, m, "Bearer garbage")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if reached {
		t.Fatal("handler must not run with an invalid token")
	}
}

func TestMiddleware_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewManager("other-secret", time.Hour).Issue(models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	m := NewManager("secret", time.Hour)
	rec, _, reached := gateTest(t, m, "Bearer "+tok)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if reached {
		t.Fatal("handler must not run with a foreign-signed token")
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	t.Parallel()

	m := NewManager("secret", time.Hour)
	tok, err := NewManager("secret", -time.Minute).Issue(models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	rec, _, reached := gateTest(t, m, "Bearer "+tok)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if reached {
		t.Fatal("handler must not run with an expired token")
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	t.Parallel()

	m := NewManager("secret", time.Hour)
	tok, err := m.Issue(models.User{ID: "u1", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	rec, claims, reached := gateTest(t, m, "Bearer "+tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !reached {
		t.Fatal("handler should run with a valid token")
	}
	if claims == nil || claims.UserID != "u1" {
		t.Fatalf("expected claims for u1 in context, got %+v", claims)
	}
}
