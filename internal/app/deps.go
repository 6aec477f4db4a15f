package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/events"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

const janitorTimeout = 30 * time.Second

// Pool is the database handle the HTTP stack needs: repositories acquire
// connections from it and the health check pings it.
type Pool interface {
	db.Pool
	Ping(ctx context.Context) error
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains background work and closes external
// connections.
func buildDependencies(ctx context.Context, pool Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	tweets := repositories.NewPostgresTweetRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)

	issuer, err := auth.NewTokenIssuer(users, auth.TokenConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure token issuer: %w", err)
	}

	publisher, closeEvents, err := connectEvents(cfg.NatsURL, logger)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	blobs, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		closeEvents()
		return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
	}

	janitor := media.NewJanitor(blobs, media.JanitorConfig{
		QueueSize: cfg.JanitorQueue,
		Workers:   cfg.JanitorWorkers,
		Timeout:   janitorTimeout,
	}, logger)
	orchestrator := media.NewOrchestrator(blobs, media.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout), janitor, cfg.UploadDir)

	likeToggler := engagement.NewLikes(likes, map[models.LikeKind]engagement.Existence{
		models.LikeKindVideo:   engagement.Exists(videos.FindByID),
		models.LikeKindComment: engagement.Exists(comments.FindByID),
		models.LikeKindTweet:   engagement.Exists(tweets.FindByID),
	}, publisher)
	subscriptionToggler := engagement.NewSubscriptions(subscriptions, engagement.Exists(users.FindByID), publisher)

	deps := handlers.Dependencies{
		Users:               users,
		Sessions:            issuer,
		Credentials:         auth.CredentialVerifier{Users: users},
		Videos:              videos,
		Tweets:              tweets,
		Comments:            comments,
		Likes:               likes,
		Subscriptions:       subscriptions,
		Playlists:           playlists,
		LikeToggler:         likeToggler,
		SubscriptionToggler: subscriptionToggler,
		Media:               orchestrator,
		Events:              publisher,
		Health:              pool,
		Cookies:             handlers.CookieSettings{Secure: cfg.CookieSecure},
		MaxUploadBytes:      cfg.MaxUploadBytes,
	}

	cleanup := func(ctx context.Context) error {
		err := janitor.Shutdown(ctx)
		closeEvents()
		return err
	}

	return deps, cleanup, nil
}

// connectEvents dials NATS when a URL is configured. Without one, events are
// discarded.
func connectEvents(url string, logger *slog.Logger) (events.Publisher, func(), error) {
	if url == "" {
		logger.Info("nats url not configured, domain events disabled")
		return events.Noop{}, func() {}, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("vidtube-backend"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}

	closeFn := func() {
		if err := nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			logger.Warn("drain nats connection", "error", err)
		}
	}
	return events.NewNatsPublisher(nc), closeFn, nil
}
