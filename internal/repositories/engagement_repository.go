package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
// The (liked_by, target_kind, target_id) uniqueness constraint turns a
// duplicate like into ErrConflict.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Find fetches the like of key.LikedBy on key.Target.
func (r *PostgresLikeRepository) Find(ctx context.Context, key LikeKey) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var like models.Like
	err = conn.QueryRow(ctx, `
        SELECT id, target_kind, target_id, liked_by, created_at
        FROM likes
        WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3
    `, key.LikedBy, string(key.Target.Kind), key.Target.ID).Scan(&like.ID, &like.Target.Kind, &like.Target.ID, &like.LikedBy, &like.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("select like: %w", err)
	}

	return like, nil
}

// Create records a like.
func (r *PostgresLikeRepository) Create(ctx context.Context, key LikeKey) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	like := models.Like{
		ID:        uuid.NewString(),
		Target:    key.Target,
		LikedBy:   key.LikedBy,
		CreatedAt: time.Now().UTC(),
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, target_kind, target_id, liked_by, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, like.ID, string(like.Target.Kind), like.Target.ID, like.LikedBy, like.CreatedAt)
	if err != nil {
		return models.Like{}, mapWriteError("insert like", err)
	}

	return like, nil
}

// Delete removes the like of key.LikedBy on key.Target.
func (r *PostgresLikeRepository) Delete(ctx context.Context, key LikeKey) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3
    `, key.LikedBy, string(key.Target.Kind), key.Target.ID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListVideoLikesBy returns a page of the user's likes on videos.
func (r *PostgresLikeRepository) ListVideoLikesBy(ctx context.Context, userID string, offset, limit int) ([]models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, target_kind, target_id, liked_by, created_at
        FROM likes
        WHERE liked_by = $1 AND target_kind = 'video'
        ORDER BY created_at, id
        LIMIT $2 OFFSET $3
    `, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	likes := []models.Like{}
	for rows.Next() {
		var like models.Like
		if err := rows.Scan(&like.ID, &like.Target.Kind, &like.Target.ID, &like.LikedBy, &like.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}

	return likes, nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// subscriptions. The (subscriber_id, channel_id) uniqueness constraint turns
// a duplicate subscription into ErrConflict.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Find fetches the subscription addressed by key.
func (r *PostgresSubscriptionRepository) Find(ctx context.Context, key SubscriptionKey) (models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var sub models.Subscription
	err = conn.QueryRow(ctx, `
        SELECT id, subscriber_id, channel_id, created_at
        FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, key.SubscriberID, key.ChannelID).Scan(&sub.ID, &sub.SubscriberID, &sub.ChannelID, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrNotFound
		}
		return models.Subscription{}, fmt.Errorf("select subscription: %w", err)
	}

	return sub, nil
}

// Create records a subscription.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, key SubscriptionKey) (models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: key.SubscriberID,
		ChannelID:    key.ChannelID,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		return models.Subscription{}, mapWriteError("insert subscription", err)
	}

	return sub, nil
}

// Delete removes the subscription addressed by key.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, key SubscriptionKey) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, key.SubscriberID, key.ChannelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByChannel returns a page of the channel's subscriptions.
func (r *PostgresSubscriptionRepository) ListByChannel(ctx context.Context, channelID string, offset, limit int) ([]models.Subscription, error) {
	return r.list(ctx, "channel_id", channelID, offset, limit)
}

// ListBySubscriber returns a page of the subscriptions held by a user.
func (r *PostgresSubscriptionRepository) ListBySubscriber(ctx context.Context, subscriberID string, offset, limit int) ([]models.Subscription, error) {
	return r.list(ctx, "subscriber_id", subscriberID, offset, limit)
}

func (r *PostgresSubscriptionRepository) list(ctx context.Context, column, value string, offset, limit int) ([]models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, subscriber_id, channel_id, created_at
        FROM subscriptions
        WHERE `+column+` = $1
        ORDER BY created_at, id
        LIMIT $2 OFFSET $3
    `, value, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.SubscriberID, &sub.ChannelID, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return subs, nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
