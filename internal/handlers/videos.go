package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/aggregate"
	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/events"
	"github.com/vidtube/backend/internal/guard"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

var videoSortFields = map[string]bool{
	"createdAt": true,
	"views":     true,
	"duration":  true,
	"title":     true,
}

// VideoHandler exposes endpoints for publishing and browsing videos.
type VideoHandler struct {
	Videos         VideoStore
	Media          MediaStore
	Events         events.Publisher
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// List handles GET /video.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, err := aggregate.ParsePage(q)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	filter := models.VideoListFilter{
		Query:   strings.TrimSpace(q.Get("query")),
		OwnerID: strings.TrimSpace(q.Get("userId")),
		Offset:  page.Offset(),
		Limit:   page.Limit,
	}

	if sortBy := strings.TrimSpace(q.Get("sortBy")); sortBy != "" {
		if !videoSortFields[sortBy] {
			response.Error(ctx, w, apperrors.Validation("sortBy must be one of createdAt, views, duration, title"))
			return
		}
		filter.SortBy = sortBy
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("sortType"))) {
	case "", "asc":
	case "desc":
		filter.SortDesc = true
	default:
		response.Error(ctx, w, apperrors.Validation("sortType must be asc or desc"))
		return
	}

	videos, err := h.Videos.List(ctx, filter)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list videos", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, videos, "Successfully fetched all videos")
}

// Publish handles POST /video.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if h.Media == nil {
		logger.Error("media store unavailable")
		response.Error(ctx, w, apperrors.Internal("media services unavailable", media.ErrStoreUnavailable))
		return
	}

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		response.Error(ctx, w, err)
		return
	}
	defer releaseMultipart(ctx, r)

	title := formValue(r, "title")
	description := formValue(r, "description")
	if title == "" || description == "" {
		response.Error(ctx, w, apperrors.Validation("Please provide a valid video details"))
		return
	}

	videoFile := formFile(r, "videoFile")
	if videoFile == nil {
		response.Error(ctx, w, apperrors.Validation("Video file is required"))
		return
	}
	thumbnail := formFile(r, "thumbnail")
	if thumbnail == nil {
		response.Error(ctx, w, apperrors.Validation("Thumbnail is required"))
		return
	}

	files, err := spool(ctx, h.Media, []upload{
		{header: videoFile, kind: media.KindVideo},
		{header: thumbnail, kind: media.KindThumbnail},
	})
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	assets, err := h.Media.UploadAll(ctx, files)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("Something went wrong while uploading the video", err))
		return
	}

	now := nowUTC(h.NowFunc)
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      actor.ID,
		Title:        title,
		Description:  description,
		VideoFile:    assets[0].URL,
		VideoFileKey: assets[0].Key,
		Thumbnail:    assets[1].URL,
		ThumbnailKey: assets[1].Key,
		Duration:     assets[0].Duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.Media.Discard(ctx, assetKeys(assets)...)
		response.Error(ctx, w, apperrors.Internal("failed to save video", err))
		return
	}

	logger.Info("video published", "videoId", video.ID)
	events.Emit(ctx, h.Events, events.SubjectVideoPublished, events.VideoPublished{
		VideoID:     video.ID,
		OwnerID:     video.OwnerID,
		IsPublished: true,
		At:          now,
	})

	response.JSON(ctx, w, http.StatusCreated, video, "Video Published Successfully")
}

// Get handles GET /video/v/{videoId}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "videoId", "video")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("video not found!"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to load video", err))
		return
	}
	if !video.IsPublished {
		response.Error(ctx, w, apperrors.NotFound("video not found!"))
		return
	}

	response.JSON(ctx, w, http.StatusOK, video, "video fetched successfully!")
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Update handles PATCH /video/v/{videoId}. The body is either JSON or a
// multipart form carrying an optional replacement thumbnail.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, "videoId", "video")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	video, err := guard.LoadOwned(ctx, h.Videos.FindByID, id, actor.ID, "video not found")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req updateVideoRequest
	var thumbnailPath string
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
			response.Error(ctx, w, err)
			return
		}
		defer releaseMultipart(ctx, r)
		req.Title = formValue(r, "title")
		req.Description = formValue(r, "description")

		if fh := formFile(r, "thumbnail"); fh != nil {
			if h.Media == nil {
				logging.FromContext(ctx).Error("media store unavailable")
				response.Error(ctx, w, apperrors.Internal("media services unavailable", media.ErrStoreUnavailable))
				return
			}
			files, err := spool(ctx, h.Media, []upload{{header: fh, kind: media.KindThumbnail}})
			if err != nil {
				response.Error(ctx, w, err)
				return
			}
			thumbnailPath = files[0].Path
		}
	} else if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		if thumbnailPath != "" {
			removeSpooled(ctx, thumbnailPath)
		}
		response.Error(ctx, w, apperrors.Validation("title and description are required"))
		return
	}

	previousThumbnail := ""
	if thumbnailPath != "" {
		asset, err := h.Media.Upload(ctx, thumbnailPath, media.KindThumbnail)
		if err != nil {
			response.Error(ctx, w, apperrors.Internal("Failed to upload thumbnail", err))
			return
		}
		previousThumbnail = video.ThumbnailKey
		video.Thumbnail = asset.URL
		video.ThumbnailKey = asset.Key
	}

	video.Title = req.Title
	video.Description = req.Description
	video.UpdatedAt = nowUTC(h.NowFunc)

	if err := h.Videos.Update(ctx, video); err != nil {
		if thumbnailPath != "" {
			h.Media.Discard(ctx, video.ThumbnailKey)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("video not found"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("Something went wrong while updating the details", err))
		return
	}

	if previousThumbnail != "" && h.Media != nil {
		h.Media.Discard(ctx, previousThumbnail)
	}

	response.JSON(ctx, w, http.StatusOK, video, "Video updated Successfully")
}

// Delete handles DELETE /video/v/{videoId}. Blob objects are removed after
// the record is gone.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, "videoId", "video")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	video, err := guard.LoadOwned(ctx, h.Videos.FindByID, id, actor.ID, "video not found")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("video not found"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("Something error happened while deleting the video", err))
		return
	}

	if h.Media != nil {
		h.Media.Discard(ctx, video.VideoFileKey, video.ThumbnailKey)
	}

	response.JSON(ctx, w, http.StatusOK, struct{}{}, "video deleted Successfully!")
}

// TogglePublish handles PATCH /video/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	id, err := pathID(r, "videoId", "video")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	video, err := guard.LoadOwned(ctx, h.Videos.FindByID, id, actor.ID, "video not found")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	video.IsPublished = !video.IsPublished
	video.UpdatedAt = nowUTC(h.NowFunc)
	if err := h.Videos.SetPublished(ctx, video.ID, video.IsPublished, video.UpdatedAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, apperrors.NotFound("video not found"))
			return
		}
		response.Error(ctx, w, apperrors.Internal("failed to toggle publish status", err))
		return
	}

	events.Emit(ctx, h.Events, events.SubjectVideoPublished, events.VideoPublished{
		VideoID:     video.ID,
		OwnerID:     video.OwnerID,
		IsPublished: video.IsPublished,
		At:          video.UpdatedAt,
	})

	response.JSON(ctx, w, http.StatusOK, video, "PublishStatus of the video is toggled successfully")
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
