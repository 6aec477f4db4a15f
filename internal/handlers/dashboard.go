package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/aggregate"
	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

// DashboardHandler exposes per-channel statistics.
type DashboardHandler struct {
	Videos VideoStore
}

// Stats handles GET /dashboard/stats/{userId}.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, err := pathID(r, "userId", "user")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	stats, err := h.Videos.ChannelStats(ctx, channelID)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to load channel stats", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, stats, "Channel stats fetched successfully")
}

// ChannelVideos handles GET /dashboard/videos/{userId}. The channel owner also sees
// unpublished videos.
func (h DashboardHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	channelID, err := pathID(r, "userId", "user")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	page, err := aggregate.ParsePage(r.URL.Query())
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	videos, err := h.Videos.List(ctx, models.VideoListFilter{
		OwnerID:            channelID,
		SortBy:             "createdAt",
		SortDesc:           true,
		IncludeUnpublished: actor.ID == channelID,
		Offset:             page.Offset(),
		Limit:              page.Limit,
	})
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list channel videos", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, videos, "Channel videos fetched successfully")
}
