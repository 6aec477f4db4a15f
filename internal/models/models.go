package models

import "time"

// User represents an account within the VidTube platform.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	Avatar        string    `json:"avatar"`
	AvatarKey     string    `json:"-"`
	CoverImage    string    `json:"coverImage"`
	CoverImageKey string    `json:"-"`
	Password      string    `json:"-"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Sanitized returns a copy of the user without credential material.
func (u User) Sanitized() User {
	u.Password = ""
	u.RefreshToken = ""
	return u
}

// Profile projects the public owner fields of the user.
func (u User) Profile() OwnerProfile {
	return OwnerProfile{ID: u.ID, FullName: u.FullName, Username: u.Username, Avatar: u.Avatar}
}

// Video is an uploaded video and its published state.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoFile    string    `json:"videoFile"`
	VideoFileKey string    `json:"-"`
	Thumbnail    string    `json:"thumbnail"`
	ThumbnailKey string    `json:"-"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OwnedBy returns the owning user id.
func (v Video) OwnedBy() string { return v.OwnerID }

// Tweet is a short text post.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy returns the owning user id.
func (t Tweet) OwnedBy() string { return t.OwnerID }

// Comment is a text reply attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	VideoID   string    `json:"video"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy returns the owning user id.
func (c Comment) OwnedBy() string { return c.OwnerID }

// LikeKind names the kind of resource a like points at.
type LikeKind string

const (
	LikeKindVideo   LikeKind = "video"
	LikeKindComment LikeKind = "comment"
	LikeKindTweet   LikeKind = "tweet"
)

// Valid reports whether k is one of the known like kinds.
func (k LikeKind) Valid() bool {
	switch k {
	case LikeKindVideo, LikeKindComment, LikeKindTweet:
		return true
	}
	return false
}

// LikeTarget identifies exactly one likeable resource.
type LikeTarget struct {
	Kind LikeKind `json:"kind"`
	ID   string   `json:"id"`
}

// Like records that a user liked a target.
type Like struct {
	ID        string     `json:"id"`
	Target    LikeTarget `json:"target"`
	LikedBy   string     `json:"likedBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Subscription links a subscriber to a channel. Both sides are users.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Playlist is an ordered, duplicate-free list of videos curated by a user.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Videos      []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnedBy returns the owning user id.
func (p Playlist) OwnedBy() string { return p.OwnerID }

// Contains reports whether the playlist already lists videoID.
func (p Playlist) Contains(videoID string) bool {
	for _, id := range p.Videos {
		if id == videoID {
			return true
		}
	}
	return false
}

// PlaylistSummary is the list view of a playlist.
type PlaylistSummary struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoCount  int       `json:"videoCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnerProfile is the public projection of a user embedded in list views.
type OwnerProfile struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// TweetView is a tweet with its owner resolved.
type TweetView struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Owner     OwnerProfile `json:"owner"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// CommentView is a comment with its owner resolved.
type CommentView struct {
	ID        string       `json:"id"`
	VideoID   string       `json:"video"`
	Content   string       `json:"content"`
	Owner     OwnerProfile `json:"owner"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// SubscriberView is one subscriber of a channel.
type SubscriberView struct {
	ID         string       `json:"id"`
	Subscriber OwnerProfile `json:"subscriber"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// SubscribedChannelView is one channel a user subscribes to.
type SubscribedChannelView struct {
	ID        string       `json:"id"`
	Channel   OwnerProfile `json:"channel"`
	CreatedAt time.Time    `json:"createdAt"`
}

// LikedVideo is the projection returned by the liked-videos listing.
type LikedVideo struct {
	ID           string       `json:"id"`
	VideoFile    string       `json:"videoFile"`
	Thumbnail    string       `json:"thumbnail"`
	Views        int64        `json:"views"`
	Duration     float64      `json:"duration"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	OwnerDetails OwnerProfile `json:"ownerDetails"`
}

// ChannelStats summarises a channel for the dashboard.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// VideoListFilter narrows the public video listing.
type VideoListFilter struct {
	Query              string
	OwnerID            string
	SortBy             string
	SortDesc           bool
	IncludeUnpublished bool
	Offset             int
	Limit              int
}

// Asset is an object stored in the blob store.
type Asset struct {
	URL      string  `json:"url"`
	Key      string  `json:"-"`
	Duration float64 `json:"-"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
