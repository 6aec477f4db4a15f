package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const tokenIssuer = "vidtube"

// UserTokenStore persists the single active refresh token of each user.
type UserTokenStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	// SwapRefreshToken replaces current with next only if current is still
	// the stored value. It reports whether the swap happened.
	SwapRefreshToken(ctx context.Context, userID, current, next string) (bool, error)
}

// TokenConfig holds the signing material and lifetimes of issued tokens.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// TokenIssuer mints, verifies and rotates access/refresh token pairs.
type TokenIssuer struct {
	users         UserTokenStore
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer backed by the provided store.
func NewTokenIssuer(users UserTokenStore, cfg TokenConfig) (*TokenIssuer, error) {
	if users == nil {
		return nil, errors.New("auth: user token store must not be nil")
	}
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: token secrets must be provided")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 10 * 24 * time.Hour
	}
	return &TokenIssuer{
		users:         users,
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshTTL:    cfg.RefreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// IssueTokenPair mints a fresh pair for the user and stores the refresh
// token, replacing any previous one.
func (t *TokenIssuer) IssueTokenPair(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	user, err := t.loadUser(ctx, userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	tokens, err := t.mint(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := t.users.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrUserNotFound
		}
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	return tokens, nil
}

// RotateTokens exchanges a refresh token for a new pair. A refresh token is
// accepted at most once.
func (t *TokenIssuer) RotateTokens(ctx context.Context, incoming string) (models.SessionTokens, error) {
	if incoming == "" {
		return models.SessionTokens{}, ErrUnauthenticated
	}

	var claims jwt.RegisteredClaims
	if err := t.parse(incoming, t.refreshSecret, &claims); err != nil {
		return models.SessionTokens{}, ErrInvalidToken
	}

	user, err := t.loadUser(ctx, claims.Subject)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if user.RefreshToken == "" || user.RefreshToken != incoming {
		return models.SessionTokens{}, ErrTokenReuseDetected
	}

	tokens, err := t.mint(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	swapped, err := t.users.SwapRefreshToken(ctx, user.ID, incoming, tokens.RefreshToken)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("swap refresh token: %w", err)
	}
	if !swapped {
		return models.SessionTokens{}, ErrTokenReuseDetected
	}

	return tokens, nil
}

// VerifyAccessToken checks an access token and returns the user id it names.
func (t *TokenIssuer) VerifyAccessToken(token string) (string, error) {
	var claims AccessClaims
	if err := t.parse(token, t.accessSecret, &claims); err != nil {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Revoke clears the stored refresh token of the user.
func (t *TokenIssuer) Revoke(ctx context.Context, userID string) error {
	if err := t.users.SetRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (t *TokenIssuer) loadUser(ctx context.Context, userID string) (models.User, error) {
	user, err := t.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (t *TokenIssuer) mint(user models.User) (models.SessionTokens, error) {
	now := t.now()
	accessExpires := now.Add(t.accessTTL)
	refreshExpires := now.Add(t.refreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpires),
		},
	})
	accessToken, err := access.SignedString(t.accessSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   user.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(refreshExpires),
	})
	refreshToken, err := refresh.SignedString(t.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

func (t *TokenIssuer) parse(token string, secret []byte, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("invalid token")
	}
	return nil
}
