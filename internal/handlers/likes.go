package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/aggregate"
	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

type likeMessages struct {
	liked   string
	unliked string
}

var likeResponses = map[models.LikeKind]likeMessages{
	models.LikeKindVideo:   {liked: "Liked Successfully", unliked: "UnLiked Successfully"},
	models.LikeKindComment: {liked: "Comment liked successfully", unliked: "Comment unLiked successfully"},
	models.LikeKindTweet:   {liked: "Tweet liked successfully", unliked: "Tweet unLiked successfully"},
}

// LikeHandler exposes like toggles and the liked-videos listing.
type LikeHandler struct {
	Toggler LikeToggler
	Likes   LikedVideoLister
	Videos  aggregate.VideoSource
	Users   aggregate.ProfileSource
}

// ToggleVideo handles POST /likes/video/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindVideo, "videoId")
}

// ToggleComment handles POST /likes/comment/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindComment, "commentId")
}

// ToggleTweet handles POST /likes/tweet/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindTweet, "tweetId")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeKind, param string) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, param, string(kind))
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	outcome, err := h.Toggler.Toggle(ctx, models.LikeTarget{Kind: kind, ID: id}, actor.ID)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	messages := likeResponses[kind]
	if outcome.Liked {
		response.JSON(ctx, w, http.StatusOK, outcome.Like, messages.liked)
		return
	}
	response.JSON(ctx, w, http.StatusOK, struct{}{}, messages.unliked)
}

// LikedVideos handles GET /likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	page, err := aggregate.ParsePage(r.URL.Query())
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	likes, err := h.Likes.ListVideoLikesBy(ctx, actor.ID, page.Offset(), page.Limit)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list liked videos", err))
		return
	}

	videos, err := aggregate.LikedVideos(ctx, h.Videos, h.Users, likes)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list liked videos", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, videos, "liked videos!")
}
