// Package aggregate denormalizes list views by resolving owner and target
// references in batches, one lookup per level.
package aggregate

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/models"
)

// ProfileSource resolves public user profiles by id. Unknown ids are absent
// from the result.
type ProfileSource interface {
	ProfilesByIDs(ctx context.Context, ids []string) (map[string]models.OwnerProfile, error)
}

// VideoSource resolves videos by id. Unknown ids are absent from the result.
type VideoSource interface {
	VideosByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
}

// WithOwners attaches the owner profile to each row. Rows whose owner no
// longer exists are dropped. Input order is preserved.
func WithOwners[T any, V any](ctx context.Context, profiles ProfileSource, rows []T, ownerOf func(T) string, build func(T, models.OwnerProfile) V) ([]V, error) {
	out := make([]V, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, ownerOf(row))
	}

	owners, err := profiles.ProfilesByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("resolve owners: %w", err)
	}

	for _, row := range rows {
		owner, ok := owners[ownerOf(row)]
		if !ok {
			continue
		}
		out = append(out, build(row, owner))
	}
	return out, nil
}

// Tweets resolves the owner of each tweet.
func Tweets(ctx context.Context, profiles ProfileSource, tweets []models.Tweet) ([]models.TweetView, error) {
	return WithOwners(ctx, profiles, tweets,
		func(t models.Tweet) string { return t.OwnerID },
		func(t models.Tweet, owner models.OwnerProfile) models.TweetView {
			return models.TweetView{ID: t.ID, Content: t.Content, Owner: owner, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
		})
}

// Comments resolves the owner of each comment.
func Comments(ctx context.Context, profiles ProfileSource, comments []models.Comment) ([]models.CommentView, error) {
	return WithOwners(ctx, profiles, comments,
		func(c models.Comment) string { return c.OwnerID },
		func(c models.Comment, owner models.OwnerProfile) models.CommentView {
			return models.CommentView{ID: c.ID, VideoID: c.VideoID, Content: c.Content, Owner: owner, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
		})
}

// Subscribers resolves the subscriber side of each subscription.
func Subscribers(ctx context.Context, profiles ProfileSource, subs []models.Subscription) ([]models.SubscriberView, error) {
	return WithOwners(ctx, profiles, subs,
		func(s models.Subscription) string { return s.SubscriberID },
		func(s models.Subscription, p models.OwnerProfile) models.SubscriberView {
			return models.SubscriberView{ID: s.ID, Subscriber: p, CreatedAt: s.CreatedAt}
		})
}

// SubscribedChannels resolves the channel side of each subscription.
func SubscribedChannels(ctx context.Context, profiles ProfileSource, subs []models.Subscription) ([]models.SubscribedChannelView, error) {
	return WithOwners(ctx, profiles, subs,
		func(s models.Subscription) string { return s.ChannelID },
		func(s models.Subscription, p models.OwnerProfile) models.SubscribedChannelView {
			return models.SubscribedChannelView{ID: s.ID, Channel: p, CreatedAt: s.CreatedAt}
		})
}

// LikedVideos resolves like -> video -> owner. Likes that do not target a
// video, or whose video or owner has vanished, are skipped.
func LikedVideos(ctx context.Context, videos VideoSource, profiles ProfileSource, likes []models.Like) ([]models.LikedVideo, error) {
	out := make([]models.LikedVideo, 0, len(likes))

	ids := make([]string, 0, len(likes))
	for _, like := range likes {
		if like.Target.Kind == models.LikeKindVideo {
			ids = append(ids, like.Target.ID)
		}
	}
	if len(ids) == 0 {
		return out, nil
	}

	found, err := videos.VideosByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("resolve liked videos: %w", err)
	}

	resolved := make([]models.Video, 0, len(ids))
	for _, like := range likes {
		if like.Target.Kind != models.LikeKindVideo {
			continue
		}
		if video, ok := found[like.Target.ID]; ok {
			resolved = append(resolved, video)
		}
	}

	return WithOwners(ctx, profiles, resolved,
		func(v models.Video) string { return v.OwnerID },
		func(v models.Video, owner models.OwnerProfile) models.LikedVideo {
			return models.LikedVideo{
				ID:           v.ID,
				VideoFile:    v.VideoFile,
				Thumbnail:    v.Thumbnail,
				Views:        v.Views,
				Duration:     v.Duration,
				Title:        v.Title,
				Description:  v.Description,
				OwnerDetails: owner,
			}
		})
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
