package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/aggregate"
	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/response"
)

// SubscriptionHandler exposes the channel subscription endpoints.
type SubscriptionHandler struct {
	Toggler       SubscriptionToggler
	Subscriptions SubscriptionLister
	Users         aggregate.ProfileSource
}

// Toggle handles POST /subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := currentUser(ctx)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	channelID, err := pathID(r, "channelId", "channel")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	subscribed, err := h.Toggler.Toggle(ctx, channelID, actor.ID)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	data := map[string]bool{"subscribed": subscribed}
	if subscribed {
		response.JSON(ctx, w, http.StatusOK, data, "Subscribed Successfully")
		return
	}
	response.JSON(ctx, w, http.StatusOK, data, "Unsubscribed Successfully")
}

// Subscribers handles GET /subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, err := pathID(r, "channelId", "channel")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	page, err := aggregate.ParsePage(r.URL.Query())
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	subs, err := h.Subscriptions.ListByChannel(ctx, channelID, page.Offset(), page.Limit)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list subscribers", err))
		return
	}

	views, err := aggregate.Subscribers(ctx, h.Users, subs)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list subscribers", err))
		return
	}

	if len(views) == 0 {
		response.JSON(ctx, w, http.StatusOK, views, "No subscriber found")
		return
	}
	response.JSON(ctx, w, http.StatusOK, views, "Subscribers successfully fetched")
}

// Channels handles GET /subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscriberID, err := pathID(r, "subscriberId", "subscriber")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	page, err := aggregate.ParsePage(r.URL.Query())
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	subs, err := h.Subscriptions.ListBySubscriber(ctx, subscriberID, page.Offset(), page.Limit)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list subscriptions", err))
		return
	}

	views, err := aggregate.SubscribedChannels(ctx, h.Users, subs)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal("failed to list subscriptions", err))
		return
	}

	response.JSON(ctx, w, http.StatusOK, views, "Subscriptions to the channel were successfully retrieved")
}
