package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/vidtube/backend/internal/logging"
)

// Subjects published by the backend.
const (
	SubjectUserRegistered      = "vidtube.user.registered"
	SubjectVideoPublished      = "vidtube.video.published"
	SubjectLikeToggled         = "vidtube.like.toggled"
	SubjectSubscriptionToggled = "vidtube.subscription.toggled"
)

// Publisher emits domain events. Publication is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

// UserRegistered is emitted after an account is created.
type UserRegistered struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	At       time.Time `json:"at"`
}

// VideoPublished is emitted when a video's published flag changes.
type VideoPublished struct {
	VideoID     string    `json:"video_id"`
	OwnerID     string    `json:"owner_id"`
	IsPublished bool      `json:"is_published"`
	At          time.Time `json:"at"`
}

// LikeToggled is emitted after a like is added or removed.
type LikeToggled struct {
	TargetKind string    `json:"target_kind"`
	TargetID   string    `json:"target_id"`
	ActorID    string    `json:"actor_id"`
	Liked      bool      `json:"liked"`
	At         time.Time `json:"at"`
}

// SubscriptionToggled is emitted after a subscription is added or removed.
type SubscriptionToggled struct {
	ChannelID    string    `json:"channel_id"`
	SubscriberID string    `json:"subscriber_id"`
	Subscribed   bool      `json:"subscribed"`
	At           time.Time `json:"at"`
}

// NatsPublisher publishes JSON events on a NATS connection and carries the
// trace context in the message headers.
type NatsPublisher struct {
	nc *nats.Conn
}

// NewNatsPublisher wraps an established NATS connection.
func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// Publish marshals event and sends it on subject.
func (p *NatsPublisher) Publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	logging.FromContext(ctx).Debug("event published", "subject", subject)
	return nil
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, string, any) error { return nil }

// Emit publishes through p and logs failures instead of returning them.
func Emit(ctx context.Context, p Publisher, subject string, event any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, event); err != nil {
		logging.FromContext(ctx).Warn("publish event", "subject", subject, "error", err)
	}
}

var (
	_ Publisher = (*NatsPublisher)(nil)
	_ Publisher = Noop{}
)
