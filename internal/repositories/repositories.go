package repositories

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	ProfilesByIDs(ctx context.Context, ids []string) (map[string]models.OwnerProfile, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	SwapRefreshToken(ctx context.Context, userID, current, next string) (bool, error)
	UpdatePassword(ctx context.Context, userID, hash string, updatedAt time.Time) error
}

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, filter models.VideoListFilter) ([]models.Video, error)
	VideosByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	Update(ctx context.Context, video models.Video) error
	SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error)
}

// TweetRepository exposes data access for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository exposes data access for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// LikeKey addresses the like of one user on one target.
type LikeKey struct {
	Target  models.LikeTarget
	LikedBy string
}

// LikeRepository exposes data access for likes.
type LikeRepository interface {
	Find(ctx context.Context, key LikeKey) (models.Like, error)
	Create(ctx context.Context, key LikeKey) (models.Like, error)
	Delete(ctx context.Context, key LikeKey) error
	ListVideoLikesBy(ctx context.Context, userID string, offset, limit int) ([]models.Like, error)
}

// SubscriptionKey addresses the subscription of one user to one channel.
type SubscriptionKey struct {
	SubscriberID string
	ChannelID    string
}

// SubscriptionRepository exposes data access for subscriptions.
type SubscriptionRepository interface {
	Find(ctx context.Context, key SubscriptionKey) (models.Subscription, error)
	Create(ctx context.Context, key SubscriptionKey) (models.Subscription, error)
	Delete(ctx context.Context, key SubscriptionKey) error
	ListByChannel(ctx context.Context, channelID string, offset, limit int) ([]models.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriberID string, offset, limit int) ([]models.Subscription, error)
}

// PlaylistRepository exposes data access for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]models.PlaylistSummary, error)
	Update(ctx context.Context, id, name, description string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string, addedAt time.Time) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}
