package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

// AccessCookie is the cookie carrying the access token.
const AccessCookie = "accessToken"

// AccessVerifier validates access tokens.
type AccessVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

// UserLoader fetches the user named by a verified token.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Session authenticates the request from the access token cookie or the
// Authorization bearer header and stores the user on the context. Requests
// without a valid identity are rejected before reaching next.
func Session(verifier AccessVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := AccessToken(r)
			if token == "" {
				response.Error(ctx, w, auth.ErrUnauthenticated)
				return
			}

			userID, err := verifier.VerifyAccessToken(token)
			if err != nil {
				response.Error(ctx, w, auth.ErrInvalidToken)
				return
			}

			user, err := users.FindByID(ctx, userID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					response.Error(ctx, w, auth.ErrUserNotFound)
					return
				}
				response.Error(ctx, w, err)
				return
			}

			ctx = auth.ContextWithUser(ctx, user)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(slog.String("user_id", user.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessToken extracts the access token, preferring the cookie over the
// Authorization header.
func AccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}
