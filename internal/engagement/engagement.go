// Package engagement toggles likes and subscriptions on behalf of the
// authenticated user.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/events"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/toggle"
)

// Existence reports whether the resource with id exists. It returns
// repositories.ErrNotFound when it does not.
type Existence func(ctx context.Context, id string) error

// Likes toggles likes on videos, comments and tweets.
type Likes struct {
	store   repositories.LikeRepository
	targets map[models.LikeKind]Existence
	events  events.Publisher
	now     func() time.Time
}

// NewLikes wires a like service. targets must provide an existence check for
// every like kind that can be toggled.
func NewLikes(store repositories.LikeRepository, targets map[models.LikeKind]Existence, publisher events.Publisher) *Likes {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Likes{store: store, targets: targets, events: publisher, now: time.Now}
}

// LikeOutcome is the result of a like toggle. Like is nil when the like was removed.
type LikeOutcome struct {
	Liked bool
	Like  *models.Like
}

var likeNotFound = map[models.LikeKind]string{
	models.LikeKindVideo:   "Video not found",
	models.LikeKindComment: "Comment not found",
	models.LikeKindTweet:   "Tweet not found",
}

// Toggle likes target for actorID, or removes the like when it already exists.
func (l *Likes) Toggle(ctx context.Context, target models.LikeTarget, actorID string) (LikeOutcome, error) {
	if !target.Kind.Valid() {
		return LikeOutcome{}, apperrors.Validation("Invalid like target")
	}
	if strings.TrimSpace(target.ID) == "" {
		return LikeOutcome{}, apperrors.Validation(fmt.Sprintf("Invalid %s ID", target.Kind))
	}

	exists, ok := l.targets[target.Kind]
	if !ok {
		return LikeOutcome{}, apperrors.Validation("Invalid like target")
	}
	if err := exists(ctx, target.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return LikeOutcome{}, apperrors.NotFound(likeNotFound[target.Kind])
		}
		return LikeOutcome{}, fmt.Errorf("check like target: %w", err)
	}

	result, err := toggle.Toggle[repositories.LikeKey, models.Like](ctx, l.store, repositories.LikeKey{Target: target, LikedBy: actorID})
	if err != nil {
		return LikeOutcome{}, err
	}

	outcome := LikeOutcome{Liked: result.Status == toggle.Created}
	if outcome.Liked {
		like := result.Record
		outcome.Like = &like
	}

	events.Emit(ctx, l.events, events.SubjectLikeToggled, events.LikeToggled{
		TargetKind: string(target.Kind),
		TargetID:   target.ID,
		ActorID:    actorID,
		Liked:      outcome.Liked,
		At:         l.now().UTC(),
	})

	return outcome, nil
}

// Subscriptions toggles channel subscriptions.
type Subscriptions struct {
	store    repositories.SubscriptionRepository
	channels Existence
	events   events.Publisher
	now      func() time.Time
}

// NewSubscriptions wires a subscription service.
func NewSubscriptions(store repositories.SubscriptionRepository, channels Existence, publisher events.Publisher) *Subscriptions {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Subscriptions{store: store, channels: channels, events: publisher, now: time.Now}
}

// Toggle subscribes actorID to channelID, or unsubscribes when already
// subscribed. It reports whether the actor is subscribed afterwards.
func (s *Subscriptions) Toggle(ctx context.Context, channelID, actorID string) (bool, error) {
	if strings.TrimSpace(channelID) == "" {
		return false, apperrors.Validation("Channel id is required")
	}

	if err := s.channels(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, apperrors.NotFound("Channel not found")
		}
		return false, fmt.Errorf("check channel: %w", err)
	}

	key := repositories.SubscriptionKey{SubscriberID: actorID, ChannelID: channelID}
	result, err := toggle.Toggle[repositories.SubscriptionKey, models.Subscription](ctx, s.store, key)
	if err != nil {
		return false, err
	}

	subscribed := result.Status == toggle.Created
	events.Emit(ctx, s.events, events.SubjectSubscriptionToggled, events.SubscriptionToggled{
		ChannelID:    channelID,
		SubscriberID: actorID,
		Subscribed:   subscribed,
		At:           s.now().UTC(),
	})

	return subscribed, nil
}

// Exists adapts a FindByID lookup into an Existence check.
func Exists[T any](find func(context.Context, string) (T, error)) Existence {
	return func(ctx context.Context, id string) error {
		_, err := find(ctx, id)
		return err
	}
}
