package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

type verifierStub map[string]string

func (v verifierStub) VerifyAccessToken(token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func sessionHandler(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	users := auth.NewInMemoryUserStore(models.User{ID: "u1", Username: "alice", Password: "hash", RefreshToken: "r"})
	verifier := verifierStub{"good": "u1", "orphan": "u2"}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			t.Fatalf("expected user on context")
		}
		if user.Password != "" || user.RefreshToken != "" {
			t.Fatalf("expected sanitized user, got %+v", user)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return Session(verifier, users)(next), &called
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) response.ErrorEnvelope {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env
}

func TestSessionAcceptsCookieAndBearer(t *testing.T) {
	handler, called := sessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "good"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || !*called {
		t.Fatalf("expected cookie session to pass, got %d", rr.Code)
	}

	*called = false
	req = httptest.NewRequest(http.MethodGet, "/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || !*called {
		t.Fatalf("expected bearer session to pass, got %d", rr.Code)
	}
}

func TestSessionPrefersCookieOverHeader(t *testing.T) {
	handler, called := sessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "good"})
	req.Header.Set("Authorization", "Bearer forged")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent || !*called {
		t.Fatalf("expected cookie to win, got %d", rr.Code)
	}
}

func TestSessionRejections(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(*http.Request)
		message string
	}{
		{"missing", func(*http.Request) {}, "Unauthorized request"},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token good") }, "Unauthorized request"},
		{"invalid", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, "Invalid or expired token"},
		{"deleted user", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessCookie, Value: "orphan"}) }, "User for token no longer exists"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, called := sessionHandler(t)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.prepare(req)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rr.Code)
			}
			if *called {
				t.Fatalf("handler must not run")
			}
			env := decodeError(t, rr)
			if env.Message != tc.message || env.Success || env.StatusCode != http.StatusUnauthorized {
				t.Fatalf("unexpected envelope %+v", env)
			}
		})
	}
}
