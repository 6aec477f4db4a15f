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

const playlistNotFound = "Playlist not found"

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PlaylistHandler exposes playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoFinder
	NowFunc   func() time.Time
}

// Create handles POST /playlist.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" || description == "" {
		response.Error(ctx, w, apperrors.Validation("name and description is required"))
		return
	}

	now := nowUTC(h.NowFunc)
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     actor.ID,
		Name:        name,
		Description: description,
		Videos:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Playlists.Create(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, apperrors.Conflict("Playlist already exist"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to create playlist", err))
		return
	}

	response.JSON(ctx, w, http.StatusCreated, playlist, "Created a playlist successfully")
}

// ListByUser handles GET /playlist/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
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

	playlists, err := h.Playlists.ListByOwner(ctx, userID, page.Offset(), page.Limit)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list playlists", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, playlists, "Playlists fetched successfully")
}

// Get handles GET /playlist/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "playlistId", "playlist")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound(playlistNotFound))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to load playlist", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, playlist, "Playlist fetched successfully")
}

// Update handles PATCH /playlist/{playlistId}. Blank fields keep their
// current value.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, "playlistId", "playlist")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" && description == "" {
		response.Error(ctx, w, apperrors.Validation("name or description is required"))
		return
	}

	playlist, err := guard.LoadOwned(ctx, h.Playlists.FindByID, id, actor.ID, playlistNotFound)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if name != "" {
		playlist.Name = name
	}
	if description != "" {
		playlist.Description = description
	}
	playlist.UpdatedAt = nowUTC(h.NowFunc)

	if err := h.Playlists.Update(ctx, playlist.ID, playlist.Name, playlist.Description, playlist.UpdatedAt); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			response.Error(ctx, w, apperrors.Conflict("Playlist already exist"))
		case errors.Is(err, repositories.ErrNotFound):
			response.Error(ctx, w, apperrors.NotFound(playlistNotFound))
		default:
			response.Error(ctx, w, apperrors.Internal("failed to update playlist", err))
		}
		return
	}

	response.JSON(ctx, w, http.StatusOK, playlist, "Playlist has been updated")
}

// Delete handles DELETE /playlist/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, "playlistId", "playlist")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if _, err := guard.LoadOwned(ctx, h.Playlists.FindByID, id, actor.ID, playlistNotFound); err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Playlists.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound(playlistNotFound))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to delete playlist", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, struct{}{}, "Playlist deleted")
}

// AddVideo handles PATCH /playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, playlist, ok := h.loadForMembership(w, r)
	if !ok {
		return
	}

	if playlist.Contains(videoID) {
		response.Error(ctx, w, apperrors.Conflict("This Video is already in the playlist"))
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

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID, nowUTC(h.NowFunc)); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			response.Error(ctx, w, apperrors.Conflict("This Video is already in the playlist"))
		case errors.Is(err, repositories.ErrNotFound):
			response.Error(ctx, w, apperrors.NotFound("Video not found"))
		default:
			response.Error(ctx, w, apperrors.Internal("failed to add video to playlist", err))
		}
		return
	}

	h.respondPlaylist(w, r, playlist.ID, "Video added to playlist")
}

// RemoveVideo handles PATCH /playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, playlist, ok := h.loadForMembership(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("Video not found in playlist"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to remove video from playlist", err))
		return
	}

	h.respondPlaylist(w, r, playlist.ID, "Video removed from playlist")
}

// loadForMembership resolves the video id and the caller's playlist of an
// add/remove request. It writes the error response itself.
func (h PlaylistHandler) loadForMembership(w http.ResponseWriter, r *http.Request) (string, models.Playlist, bool) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return "", models.Playlist{}, false
	}

	videoID, err := pathID(r, "videoId", "video")
	if err != nil {
		response.Error(ctx, w, err)
		return "", models.Playlist{}, false
	}
	playlistID, err := pathID(r, "playlistId", "playlist")
	if err != nil {
		response.Error(ctx, w, err)
		return "", models.Playlist{}, false
	}

	playlist, err := guard.LoadOwned(ctx, h.Playlists.FindByID, playlistID, actor.ID, playlistNotFound)
	if err != nil {
		response.Error(ctx, w, err)
		return "", models.Playlist{}, false
	}

	return videoID, playlist, true
}

func (h PlaylistHandler) respondPlaylist(w http.ResponseWriter, r *http.Request, id, message string) {
	ctx := r.Context()

	playlist, err := h.Playlists.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound(playlistNotFound))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to load playlist", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, playlist, message)
}
