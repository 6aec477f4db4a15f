package handlers

import (
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/events"
	"github.com/vidtube/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.Health}
	users := UserHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Credentials:    deps.Credentials,
		Media:          deps.Media,
		Events:         deps.Events,
		Cookies:        deps.Cookies,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Media:          deps.Media,
		Events:         deps.Events,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}
	tweets := TweetHandler{Tweets: deps.Tweets, Users: deps.Users, NowFunc: deps.NowFunc}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Users: deps.Users, NowFunc: deps.NowFunc}
	likes := LikeHandler{Toggler: deps.LikeToggler, Likes: deps.Likes, Videos: deps.Videos, Users: deps.Users}
	subs := SubscriptionHandler{Toggler: deps.SubscriptionToggler, Subscriptions: deps.Subscriptions, Users: deps.Users}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, NowFunc: deps.NowFunc}
	dashboard := DashboardHandler{Videos: deps.Videos}

	session := middleware.Session(deps.Sessions, deps.Users)
	protect := func(h http.HandlerFunc) http.Handler { return session(h) }

	mux.HandleFunc("GET /healthcheck", health.Handle)

	mux.HandleFunc("POST /users/register", users.Register)
	mux.HandleFunc("POST /users/login", users.Login)
	mux.HandleFunc("POST /users/refresh-token", users.Refresh)
	mux.Handle("POST /users/logout", protect(users.Logout))
	mux.Handle("GET /users/current-user", protect(users.Current))
	mux.Handle("POST /users/change-password", protect(users.ChangePassword))

	mux.HandleFunc("GET /video", videos.List)
	mux.Handle("POST /video", protect(videos.Publish))
	mux.HandleFunc("GET /video/v/{videoId}", videos.Get)
	mux.Handle("PATCH /video/v/{videoId}", protect(videos.Update))
	mux.Handle("DELETE /video/v/{videoId}", protect(videos.Delete))
	mux.Handle("PATCH /video/toggle/publish/{videoId}", protect(videos.TogglePublish))

	mux.Handle("POST /tweet", protect(tweets.Create))
	mux.Handle("GET /tweet/user/{userId}", protect(tweets.ListByUser))
	mux.Handle("PATCH /tweet/{tweetId}", protect(tweets.Update))
	mux.Handle("DELETE /tweet/{tweetId}", protect(tweets.Delete))

	mux.Handle("GET /comment/{videoId}", protect(comments.List))
	mux.Handle("POST /comment/{videoId}", protect(comments.Create))
	mux.Handle("PATCH /comment/c/{commentId}", protect(comments.Update))
	mux.Handle("DELETE /comment/c/{commentId}", protect(comments.Delete))

	mux.Handle("POST /likes/video/{videoId}", protect(likes.ToggleVideo))
	mux.Handle("POST /likes/comment/{commentId}", protect(likes.ToggleComment))
	mux.Handle("POST /likes/tweet/{tweetId}", protect(likes.ToggleTweet))
	mux.Handle("GET /likes/videos", protect(likes.LikedVideos))

	mux.Handle("POST /subscriptions/c/{channelId}", protect(subs.Toggle))
	mux.Handle("GET /subscriptions/c/{channelId}", protect(subs.Subscribers))
	mux.Handle("GET /subscriptions/u/{subscriberId}", protect(subs.Channels))

	mux.Handle("POST /playlist", protect(playlists.Create))
	mux.Handle("GET /playlist/user/{userId}", protect(playlists.ListByUser))
	mux.Handle("GET /playlist/{playlistId}", protect(playlists.Get))
	mux.Handle("PATCH /playlist/{playlistId}", protect(playlists.Update))
	mux.Handle("DELETE /playlist/{playlistId}", protect(playlists.Delete))
	mux.Handle("PATCH /playlist/add/{videoId}/{playlistId}", protect(playlists.AddVideo))
	mux.Handle("PATCH /playlist/remove/{videoId}/{playlistId}", protect(playlists.RemoveVideo))

	mux.Handle("GET /dashboard/stats/{userId}", protect(dashboard.Stats))
	mux.Handle("GET /dashboard/videos/{userId}", protect(dashboard.ChannelVideos))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users       UserStore
	Sessions    SessionManager
	Credentials CredentialChecker

	Videos        VideoStore
	Tweets        TweetStore
	Comments      CommentStore
	Likes         LikedVideoLister
	Subscriptions SubscriptionLister
	Playlists     PlaylistStore

	LikeToggler         LikeToggler
	SubscriptionToggler SubscriptionToggler

	Media  MediaStore
	Events events.Publisher
	Health HealthChecker

	Cookies        CookieSettings
	MaxUploadBytes int64
	NowFunc        func() time.Time
}
