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

// CommentHandler exposes comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoFinder
	Users    aggregate.ProfileSource
	NowFunc  func() time.Time
}

// List handles GET /comment/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathID(r, "videoId", "video")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	page, err := aggregate.ParsePage(r.URL.Query())
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	comments, err := h.Comments.ListByVideo(ctx, videoID, page.Offset(), page.Limit)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list comments", err))
		return
	}

	views, err := aggregate.Comments(ctx, h.Users, comments)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list comments", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, views, "Comments fetched successfully")
}

// Create handles POST /comment/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	videoID, err := pathID(r, "videoId", "video")
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
		response.Error(ctx, w, apperrors.Validation("content is required"))
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("Video not found"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to load video", err))
		return
	}

	now := nowUTC(h.NowFunc)
	comment := models.Comment{
		ID:        uuid.NewString(),
		OwnerID:   actor.ID,
		VideoID:   videoID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("Video not found"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to add comment", err))
		return
	}

	response.JSON(ctx, w, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /comment/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, "commentId", "comment")
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
		response.Error(ctx, w, apperrors.Validation("content is required"))
		return
	}

	comment, err := guard.LoadOwned(ctx, h.Comments.FindByID, id, actor.ID, "Comment not found")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	comment.Content = content
	comment.UpdatedAt = nowUTC(h.NowFunc)
	if err := h.Comments.UpdateContent(ctx, comment.ID, comment.Content, comment.UpdatedAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("Comment not found"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to update comment", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, comment, "comment updated successfully!")
}

// Delete handles DELETE /comment/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, "commentId", "comment")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if _, err := guard.LoadOwned(ctx, h.Comments.FindByID, id, actor.ID, "Comment not found"); err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Comments.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("Comment not found"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to delete comment", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, struct{}{}, "comment deleted Successfully!")
}
