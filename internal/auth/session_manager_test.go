package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vidtube/backend/internal/models"
)

func newTestIssuer(t *testing.T, users ...models.User) (*TokenIssuer, *InMemoryUserStore) {
	t.Helper()
	store := NewInMemoryUserStore(users...)
	issuer, err := NewTokenIssuer(store, TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}
	return issuer, store
}

func testUser(id string) models.User {
	return models.User{ID: id, Username: id, Email: id + "@example.com", FullName: "Test " + id}
}

func TestTokenIssuerIssueAndRotate(t *testing.T) {
	issuer, store := newTestIssuer(t, testUser("user-1"))
	ctx := context.Background()

	tokens, err := issuer.IssueTokenPair(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}
	if store.RefreshToken("user-1") != tokens.RefreshToken {
		t.Fatal("expected refresh token to be stored")
	}

	userID, err := issuer.VerifyAccessToken(tokens.AccessToken)
	if err != nil || userID != "user-1" {
		t.Fatalf("verify access: id=%q err=%v", userID, err)
	}

	rotated, err := issuer.RotateTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.RefreshToken("user-1") != rotated.RefreshToken {
		t.Fatal("expected rotated refresh token to be stored")
	}

	if _, err := issuer.RotateTokens(ctx, tokens.RefreshToken); !errors.Is(err, ErrTokenReuseDetected) {
		t.Fatalf("expected token reuse on replay got %v", err)
	}
}

func TestTokenIssuerIssueOverwritesPreviousRefreshToken(t *testing.T) {
	issuer, _ := newTestIssuer(t, testUser("user-1"))
	ctx := context.Background()

	first, err := issuer.IssueTokenPair(ctx, "user-1")
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if _, err := issuer.IssueTokenPair(ctx, "user-1"); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if _, err := issuer.RotateTokens(ctx, first.RefreshToken); !errors.Is(err, ErrTokenReuseDetected) {
		t.Fatalf("expected earlier refresh token to be invalidated got %v", err)
	}
}

func TestTokenIssuerConcurrentRotationSucceedsOnce(t *testing.T) {
	issuer, _ := newTestIssuer(t, testUser("user-1"))
	ctx := context.Background()

	tokens, err := issuer.IssueTokenPair(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		reused    int
	)
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := issuer.RotateTokens(ctx, tokens.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrTokenReuseDetected):
				reused++
			default:
				t.Errorf("unexpected rotate error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || reused != attempts-1 {
		t.Fatalf("expected exactly one successful rotation, got %d successes and %d reuse errors", successes, reused)
	}
}

func TestTokenIssuerRotateFailures(t *testing.T) {
	issuer, store := newTestIssuer(t, testUser("user-1"), testUser("user-2"))
	ctx := context.Background()

	if _, err := issuer.RotateTokens(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for empty token got %v", err)
	}
	if _, err := issuer.RotateTokens(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token got %v", err)
	}

	tokens, err := issuer.IssueTokenPair(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.RotateTokens(ctx, tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected access token to be rejected as refresh token got %v", err)
	}

	other, err := issuer.IssueTokenPair(ctx, "user-2")
	if err != nil {
		t.Fatalf("issue user-2: %v", err)
	}
	store.Remove("user-2")
	if _, err := issuer.RotateTokens(ctx, other.RefreshToken); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found got %v", err)
	}

	issuer.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	stale, err := issuer.IssueTokenPair(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue stale: %v", err)
	}
	issuer.now = func() time.Time { return time.Now().UTC() }
	if _, err := issuer.RotateTokens(ctx, stale.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired refresh token to be invalid got %v", err)
	}
	if _, err := issuer.VerifyAccessToken(stale.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired access token to be invalid got %v", err)
	}
}

func TestTokenIssuerRejectsUnsignedTokens(t *testing.T) {
	issuer, _ := newTestIssuer(t, testUser("user-1"))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, err := issuer.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none to be rejected got %v", err)
	}
}

func TestTokenIssuerRevoke(t *testing.T) {
	issuer, store := newTestIssuer(t, testUser("user-1"))
	ctx := context.Background()

	tokens, err := issuer.IssueTokenPair(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := issuer.Revoke(ctx, "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if store.RefreshToken("user-1") != "" {
		t.Fatal("expected refresh token to be cleared")
	}
	if _, err := issuer.RotateTokens(ctx, tokens.RefreshToken); !errors.Is(err, ErrTokenReuseDetected) {
		t.Fatalf("expected revoked refresh token to be rejected got %v", err)
	}
}

func TestTokenIssuerIssueValidation(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	if _, err := issuer.IssueTokenPair(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, err := issuer.IssueTokenPair(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found got %v", err)
	}
}
