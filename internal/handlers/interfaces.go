package handlers

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	ProfilesByIDs(ctx context.Context, ids []string) (map[string]models.OwnerProfile, error)
	UpdatePassword(ctx context.Context, userID, hash string, updatedAt time.Time) error
}

// SessionManager issues, rotates and revokes authentication tokens for users.
type SessionManager interface {
	IssueTokenPair(ctx context.Context, userID string) (models.SessionTokens, error)
	RotateTokens(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	VerifyAccessToken(token string) (string, error)
	Revoke(ctx context.Context, userID string) error
}

// CredentialChecker validates login attempts.
type CredentialChecker interface {
	Verify(ctx context.Context, creds auth.Credentials) (models.User, error)
}

// VideoFinder loads a single video.
type VideoFinder interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// VideoStore captures persistence for uploaded videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, filter models.VideoListFilter) ([]models.Video, error)
	VideosByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	Update(ctx context.Context, video models.Video) error
	SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error)
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// LikedVideoLister lists the video likes of a user.
type LikedVideoLister interface {
	ListVideoLikesBy(ctx context.Context, userID string, offset, limit int) ([]models.Like, error)
}

// SubscriptionLister lists both sides of the subscription graph.
type SubscriptionLister interface {
	ListByChannel(ctx context.Context, channelID string, offset, limit int) ([]models.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriberID string, offset, limit int) ([]models.Subscription, error)
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]models.PlaylistSummary, error)
	Update(ctx context.Context, id, name, description string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string, addedAt time.Time) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// LikeToggler flips the like of an actor on a target.
type LikeToggler interface {
	Toggle(ctx context.Context, target models.LikeTarget, actorID string) (engagement.LikeOutcome, error)
}

// SubscriptionToggler flips the subscription of an actor to a channel.
type SubscriptionToggler interface {
	Toggle(ctx context.Context, channelID, actorID string) (bool, error)
}

// MediaStore moves multipart uploads into the blob store.
type MediaStore interface {
	Spool(fh *multipart.FileHeader) (string, error)
	Upload(ctx context.Context, localPath string, kind media.Kind) (models.Asset, error)
	UploadAll(ctx context.Context, files []media.LocalFile) ([]models.Asset, error)
	Discard(ctx context.Context, keys ...string)
}

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
