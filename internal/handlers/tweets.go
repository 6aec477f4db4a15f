package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/aggregate"
	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/guard"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

type contentRequest struct {
	Content string `json:"content"`
}

// TweetHandler exposes tweet endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	Users   aggregate.ProfileSource
	NowFunc func() time.Time
}

// Create handles POST /tweet.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		response.Error(ctx, w, apperrors.Validation("content field is required"))
		return
	}

	now := nowUTC(h.NowFunc)
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   actor.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Tweets.Create(ctx, tweet); err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to create tweet", err))
		return
	}

	response.JSON(ctx, w, http.StatusCreated, tweet, "Tweet created successfully")
}

// ListByUser handles GET /tweet/user/{userId}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "userId", "user")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	page, err := aggregate.ParsePage(r.URL.Query())
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	tweets, err := h.Tweets.ListByOwner(ctx, userID, page.Offset(), page.Limit)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list tweets", err))
		return
	}

	views, err := aggregate.Tweets(ctx, h.Users, tweets)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list tweets", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, views, "Tweets retrieved successfully")
}

// Update handles PATCH /tweet/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, "tweetId", "tweet")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		response.Error(ctx, w, apperrors.Validation("content field is required"))
		return
	}

	tweet, err := guard.LoadOwned(ctx, h.Tweets.FindByID, id, actor.ID, "Tweet not found")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	tweet.Content = content
	tweet.UpdatedAt = nowUTC(h.NowFunc)
	if err := h.Tweets.UpdateContent(ctx, tweet.ID, tweet.Content, tweet.UpdatedAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("Tweet not found"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to update tweet", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, tweet, "Tweet updated successfully")
}

// Delete handles DELETE /tweet/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, "tweetId", "tweet")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if _, err := guard.LoadOwned(ctx, h.Tweets.FindByID, id, actor.ID, "Tweet not found"); err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Tweets.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("Tweet not found"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to delete tweet", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, struct{}{}, "tweet deleted successfully!")
}
