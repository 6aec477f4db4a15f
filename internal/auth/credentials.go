package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// CredentialStore looks users up by either login identifier.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// Credentials is a login attempt. Either Email or Username identifies the account.
type Credentials struct {
	Email    string
	Username string
	Password string
}

// CredentialVerifier checks login attempts against stored password hashes.
type CredentialVerifier struct {
	Users CredentialStore
}

// Verify returns the user when the password matches the stored hash. Unknown
// accounts and wrong passwords are indistinguishable to the caller.
func (v CredentialVerifier) Verify(ctx context.Context, creds Credentials) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	username := strings.ToLower(strings.TrimSpace(creds.Username))

	if email == "" && username == "" {
		return models.User{}, apperrors.Validation("Email or Username is required")
	}
	if creds.Password == "" {
		return models.User{}, apperrors.Validation("Password is required")
	}

	var (
		user models.User
		err  error
	)
	if email != "" {
		user, err = v.Users.FindByEmail(ctx, email)
	} else {
		user, err = v.Users.FindByUsername(ctx, username)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !CheckPassword(user.Password, creds.Password) {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// ValidatePassword rejects passwords bcrypt would refuse to hash.
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword derives the stored bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
