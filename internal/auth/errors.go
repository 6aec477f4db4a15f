package auth

import "github.com/vidtube/backend/internal/apperrors"

var (
	// ErrUnauthenticated indicates the request carried no access token.
	ErrUnauthenticated = apperrors.Unauthenticated("Unauthorized request")
	// ErrInvalidToken indicates a token failed signature, algorithm or expiry checks.
	ErrInvalidToken = apperrors.Unauthenticated("Invalid or expired token")
	// ErrUserNotFound indicates a valid token references a user that no longer exists.
	ErrUserNotFound = apperrors.Unauthenticated("User for token no longer exists")
	// ErrTokenReuseDetected indicates a refresh token that is no longer the stored one.
	ErrTokenReuseDetected = apperrors.Unauthenticated("Refresh token is expired or used")
	// ErrInvalidCredentials indicates an unknown account or a wrong password.
	ErrInvalidCredentials = apperrors.Unauthenticated("Invalid user credentials")
	// ErrPasswordTooLong indicates a password bcrypt cannot hash.
	ErrPasswordTooLong = apperrors.Validation("Password must be at most 72 bytes")
)
