package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/events"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

var errAuthUnavailable = apperrors.Internal("authentication services unavailable", errors.New("handler dependencies missing"))

// UserHandler implements account and session endpoints.
type UserHandler struct {
	Users          UserStore
	Sessions       SessionManager
	Credentials    CredentialChecker
	Media          MediaStore
	Events         events.Publisher
	Cookies        CookieSettings
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// Register handles POST /users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Media == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasMedia", h.Media != nil)
		response.Error(ctx, w, errAuthUnavailable)
		return
	}

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		response.Error(ctx, w, err)
		return
	}
	defer releaseMultipart(ctx, r)

	fullName := formValue(r, "fullName")
	email := strings.ToLower(formValue(r, "email"))
	username := strings.ToLower(formValue(r, "username"))
	password := r.FormValue("password")

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(password) == "" {
		response.Error(ctx, w, apperrors.Validation("All fields are required"))
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		response.Error(ctx, w, apperrors.Validation("Invalid email address"))
		return
	}
	if err := auth.ValidatePassword(password); err != nil {
		response.Error(ctx, w, err)
		return
	}

	if taken, err := h.identityTaken(r, email, username); err != nil {
		response.Error(ctx, w, err)
		return
	} else if taken {
		response.Error(ctx, w, apperrors.Conflict("User with email or username is already in use"))
		return
	}

	avatar := formFile(r, "avatar")
	if avatar == nil {
		response.Error(ctx, w, apperrors.Validation("Avatar file is required"))
		return
	}

	files, err := spool(ctx, h.Media, []upload{
		{header: avatar, kind: media.KindAvatar},
		{header: formFile(r, "coverImage"), kind: media.KindCoverImage},
	})
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	assets, err := h.Media.UploadAll(ctx, files)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("Avatar upload failed", err))
		return
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		h.Media.Discard(ctx, assetKeys(assets)...)
		response.Error(ctx, w, passwordError(err))
		return
	}

	now := nowUTC(h.NowFunc)
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		FullName:  fullName,
		Avatar:    assets[0].URL,
		AvatarKey: assets[0].Key,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(assets) > 1 {
		user.CoverImage = assets[1].URL
		user.CoverImageKey = assets[1].Key
	}

	if err := h.Users.Create(ctx, user); err != nil {
		h.Media.Discard(ctx, assetKeys(assets)...)
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, apperrors.Conflict("User with email or username is already in use"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("Something went wrong while registering the user", err))
		return
	}

	logger.Info("user registered", "userId", user.ID)
	events.Emit(ctx, h.Events, events.SubjectUserRegistered, events.UserRegistered{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		At:       now,
	})

	response.JSON(ctx, w, http.StatusCreated, user.Sanitized(), "User registered Successfully")
}

func (h UserHandler) identityTaken(r *http.Request, email, username string) (bool, error) {
	ctx := r.Context()
	if _, err := h.Users.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return false, apperrors.Internal("unable to verify existing accounts", err)
	}
	if _, err := h.Users.FindByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return false, apperrors.Internal("unable to verify existing accounts", err)
	}
	return false, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Login handles POST /users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Credentials == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasCredentials", h.Credentials != nil, "hasSessions", h.Sessions != nil)
		response.Error(ctx, w, errAuthUnavailable)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	user, err := h.Credentials.Verify(ctx, auth.Credentials{Email: req.Email, Username: req.Username, Password: req.Password})
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	tokens, err := h.Sessions.IssueTokenPair(ctx, user.ID)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to create session", err))
		return
	}

	h.Cookies.set(w, tokens)
	logger.Info("user logged in", "userId", user.ID)
	response.JSON(ctx, w, http.StatusOK, loginResponse{
		User:         user.Sanitized(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged In Successfully")
}

// Logout handles POST /users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to end session", err))
		return
	}

	h.Cookies.clear(w)
	response.JSON(ctx, w, http.StatusOK, struct{}{}, "Logged Out Successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles POST /users/refresh-token.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var incoming string
	if cookie, err := r.Cookie(RefreshCookie); err == nil {
		incoming = strings.TrimSpace(cookie.Value)
	}
	if incoming == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(ctx, w, err)
			return
		}
		incoming = strings.TrimSpace(req.RefreshToken)
	}
	if incoming == "" {
		response.Error(ctx, w, auth.ErrUnauthenticated)
		return
	}

	tokens, err := h.Sessions.RotateTokens(ctx, incoming)
	if err != nil {
		if errors.Is(err, auth.ErrTokenReuseDetected) {
			logging.FromContext(ctx).Warn("refresh token reuse detected")
		}
		response.Error(ctx, w, err)
		return
	}

	h.Cookies.set(w, tokens)
	response.JSON(ctx, w, http.StatusOK, map[string]string{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	}, "Access token refreshed")
}

// Current handles GET /users/current-user.
func (h UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	response.JSON(ctx, w, http.StatusOK, user, "Current user fetched successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles POST /users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}
	if req.OldPassword == "" || strings.TrimSpace(req.NewPassword) == "" {
		response.Error(ctx, w, apperrors.Validation("oldPassword and newPassword are required"))
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		response.Error(ctx, w, err)
		return
	}

	// The context copy is sanitized; the hash has to come from the store.
	stored, err := h.Users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, auth.ErrUserNotFound)
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to load user", err))
		return
	}

	if !auth.CheckPassword(stored.Password, req.OldPassword) {
		response.Error(ctx, w, apperrors.Validation("Invalid old password"))
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		response.Error(ctx, w, passwordError(err))
		return
	}

	if err := h.Users.UpdatePassword(ctx, actor.ID, hashed, nowUTC(h.NowFunc)); err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to update password", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, struct{}{}, "Password changed successfully")
}

// passwordError keeps rejected input a validation error and hides any other
// hashing failure behind a 500.
func passwordError(err error) error {
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return err
	}
	return apperrors.Internal("failed to secure password", err)
}

func assetKeys(assets []models.Asset) []string {
	keys := make([]string, 0, len(assets))
	for _, a := range assets {
		keys = append(keys, a.Key)
	}
	return keys
}
