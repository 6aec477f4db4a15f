package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]models.User)}
}

func (s *memUsers) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUsers) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.findBy(func(u models.User) bool { return u.Email == email })
}

func (s *memUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	return s.findBy(func(u models.User) bool { return u.Username == username })
}

func (s *memUsers) findBy(match func(models.User) bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memUsers) ProfilesByIDs(_ context.Context, ids []string) (map[string]models.OwnerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.OwnerProfile, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Profile()
		}
	}
	return out, nil
}

func (s *memUsers) UpdatePassword(_ context.Context, userID, hash string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = updatedAt
	s.users[userID] = u
	return nil
}

func (s *memUsers) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.RefreshToken = token
	s.users[userID] = u
	return nil
}

func (s *memUsers) SwapRefreshToken(_ context.Context, userID, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = next
	s.users[userID] = u
	return true, nil
}

type memVideos struct {
	mu     sync.Mutex
	videos map[string]models.Video
	order  []string
}

func newMemVideos() *memVideos {
	return &memVideos{videos: make(map[string]models.Video)}
}

func (s *memVideos) put(v models.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[v.ID]; !ok {
		s.order = append(s.order, v.ID)
	}
	s.videos[v.ID] = v
}

func (s *memVideos) Create(_ context.Context, v models.Video) error {
	s.put(v)
	return nil
}

func (s *memVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (s *memVideos) List(_ context.Context, filter models.VideoListFilter) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []models.Video{}
	for _, id := range s.order {
		v := s.videos[id]
		if !filter.IncludeUnpublished && !v.IsPublished {
			continue
		}
		if filter.OwnerID != "" && v.OwnerID != filter.OwnerID {
			continue
		}
		if q := strings.ToLower(filter.Query); q != "" &&
			!strings.Contains(strings.ToLower(v.Title), q) && !strings.Contains(strings.ToLower(v.Description), q) {
			continue
		}
		matched = append(matched, v)
	}
	if filter.SortDesc {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	return paginate(matched, filter.Offset, filter.Limit), nil
}

func (s *memVideos) VideosByIDs(_ context.Context, ids []string) (map[string]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Video, len(ids))
	for _, id := range ids {
		if v, ok := s.videos[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (s *memVideos) Update(_ context.Context, v models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[v.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[v.ID] = v
	return nil
}

func (s *memVideos) SetPublished(_ context.Context, id string, published bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	v.IsPublished = published
	v.UpdatedAt = updatedAt
	s.videos[id] = v
	return nil
}

func (s *memVideos) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memVideos) ChannelStats(_ context.Context, ownerID string) (models.ChannelStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats models.ChannelStats
	for _, v := range s.videos {
		if v.OwnerID == ownerID {
			stats.TotalVideos++
			stats.TotalViews += v.Views
		}
	}
	return stats, nil
}

type memTweets struct {
	mu     sync.Mutex
	tweets map[string]models.Tweet
	order  []string
}

func newMemTweets() *memTweets {
	return &memTweets{tweets: make(map[string]models.Tweet)}
}

func (s *memTweets) Create(_ context.Context, t models.Tweet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tweets[t.ID] = t
	s.order = append(s.order, t.ID)
	return nil
}

func (s *memTweets) FindByID(_ context.Context, id string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return t, nil
}

func (s *memTweets) ListByOwner(_ context.Context, ownerID string, offset, limit int) ([]models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Tweet{}
	for _, id := range s.order {
		if t, ok := s.tweets[id]; ok && t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return paginate(out, offset, limit), nil
}

func (s *memTweets) UpdateContent(_ context.Context, id, content string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tweets[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Content = content
	t.UpdatedAt = updatedAt
	s.tweets[id] = t
	return nil
}

func (s *memTweets) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

type memComments struct {
	mu       sync.Mutex
	comments map[string]models.Comment
	order    []string
}

func newMemComments() *memComments {
	return &memComments{comments: make(map[string]models.Comment)}
}

func (s *memComments) Create(_ context.Context, c models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *memComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return c, nil
}

func (s *memComments) ListByVideo(_ context.Context, videoID string, offset, limit int) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Comment{}
	for _, id := range s.order {
		if c, ok := s.comments[id]; ok && c.VideoID == videoID {
			out = append(out, c)
		}
	}
	return paginate(out, offset, limit), nil
}

func (s *memComments) UpdateContent(_ context.Context, id, content string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = updatedAt
	s.comments[id] = c
	return nil
}

func (s *memComments) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type memLikes struct {
	mu    sync.Mutex
	seq   int
	likes map[repositories.LikeKey]models.Like
}

func newMemLikes() *memLikes {
	return &memLikes{likes: make(map[repositories.LikeKey]models.Like)}
}

func (s *memLikes) Find(_ context.Context, key repositories.LikeKey) (models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	like, ok := s.likes[key]
	if !ok {
		return models.Like{}, repositories.ErrNotFound
	}
	return like, nil
}

func (s *memLikes) Create(_ context.Context, key repositories.LikeKey) (models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.likes[key]; ok {
		return models.Like{}, repositories.ErrConflict
	}
	s.seq++
	like := models.Like{
		ID:        fmt.Sprintf("like-%d", s.seq),
		Target:    key.Target,
		LikedBy:   key.LikedBy,
		CreatedAt: time.Unix(int64(s.seq), 0).UTC(),
	}
	s.likes[key] = like
	return like, nil
}

func (s *memLikes) Delete(_ context.Context, key repositories.LikeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.likes[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.likes, key)
	return nil
}

func (s *memLikes) ListVideoLikesBy(_ context.Context, userID string, offset, limit int) ([]models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Like{}
	for _, like := range s.likes {
		if like.LikedBy == userID && like.Target.Kind == models.LikeKindVideo {
			out = append(out, like)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, offset, limit), nil
}

func (s *memLikes) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.likes)
}

type memSubs struct {
	mu   sync.Mutex
	subs []models.Subscription
}

func (s *memSubs) Find(_ context.Context, key repositories.SubscriptionKey) (models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.SubscriberID == key.SubscriberID && sub.ChannelID == key.ChannelID {
			return sub, nil
		}
	}
	return models.Subscription{}, repositories.ErrNotFound
}

func (s *memSubs) Create(_ context.Context, key repositories.SubscriptionKey) (models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.SubscriberID == key.SubscriberID && sub.ChannelID == key.ChannelID {
			return models.Subscription{}, repositories.ErrConflict
		}
	}
	sub := models.Subscription{
		ID:           fmt.Sprintf("sub-%d", len(s.subs)+1),
		SubscriberID: key.SubscriberID,
		ChannelID:    key.ChannelID,
		CreatedAt:    time.Now().UTC(),
	}
	s.subs = append(s.subs, sub)
	return sub, nil
}

func (s *memSubs) Delete(_ context.Context, key repositories.SubscriptionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.SubscriberID == key.SubscriberID && sub.ChannelID == key.ChannelID {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *memSubs) ListByChannel(_ context.Context, channelID string, offset, limit int) ([]models.Subscription, error) {
	return s.list(func(sub models.Subscription) bool { return sub.ChannelID == channelID }, offset, limit), nil
}

func (s *memSubs) ListBySubscriber(_ context.Context, subscriberID string, offset, limit int) ([]models.Subscription, error) {
	return s.list(func(sub models.Subscription) bool { return sub.SubscriberID == subscriberID }, offset, limit), nil
}

func (s *memSubs) list(match func(models.Subscription) bool, offset, limit int) []models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Subscription{}
	for _, sub := range s.subs {
		if match(sub) {
			out = append(out, sub)
		}
	}
	return paginate(out, offset, limit)
}

type memPlaylists struct {
	mu        sync.Mutex
	playlists map[string]models.Playlist
}

func newMemPlaylists() *memPlaylists {
	return &memPlaylists{playlists: make(map[string]models.Playlist)}
}

func (s *memPlaylists) Create(_ context.Context, p models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.playlists {
		if existing.OwnerID == p.OwnerID && existing.Name == p.Name {
			return repositories.ErrConflict
		}
	}
	p.Videos = append([]string{}, p.Videos...)
	s.playlists[p.ID] = p
	return nil
}

func (s *memPlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	p.Videos = append([]string{}, p.Videos...)
	return p, nil
}

func (s *memPlaylists) ListByOwner(_ context.Context, ownerID string, offset, limit int) ([]models.PlaylistSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PlaylistSummary{}
	for _, p := range s.playlists {
		if p.OwnerID != ownerID {
			continue
		}
		out = append(out, models.PlaylistSummary{
			ID:          p.ID,
			OwnerID:     p.OwnerID,
			Name:        p.Name,
			Description: p.Description,
			VideoCount:  len(p.Videos),
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, offset, limit), nil
}

func (s *memPlaylists) Update(_ context.Context, id, name, description string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, existing := range s.playlists {
		if existing.ID != id && existing.OwnerID == p.OwnerID && existing.Name == name {
			return repositories.ErrConflict
		}
	}
	p.Name = name
	p.Description = description
	p.UpdatedAt = updatedAt
	s.playlists[id] = p
	return nil
}

func (s *memPlaylists) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *memPlaylists) AddVideo(_ context.Context, playlistID, videoID string, addedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	if p.Contains(videoID) {
		return repositories.ErrConflict
	}
	p.Videos = append(p.Videos, videoID)
	p.UpdatedAt = addedAt
	s.playlists[playlistID] = p
	return nil
}

func (s *memPlaylists) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, id := range p.Videos {
		if id == videoID {
			p.Videos = append(p.Videos[:i:i], p.Videos[i+1:]...)
			s.playlists[playlistID] = p
			return nil
		}
	}
	return repositories.ErrNotFound
}

type mediaStub struct {
	mu        sync.Mutex
	seq       int
	uploaded  []models.Asset
	discarded []string
	failAll   bool
}

func (m *mediaStub) Spool(fh *multipart.FileHeader) (string, error) {
	return "spooled/" + fh.Filename, nil
}

func (m *mediaStub) Upload(_ context.Context, localPath string, kind media.Kind) (models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return models.Asset{}, fmt.Errorf("upload %s: bucket unavailable", localPath)
	}
	m.seq++
	key := fmt.Sprintf("%s/%d", kind, m.seq)
	asset := models.Asset{URL: "https://cdn.test/" + key, Key: key}
	if kind == media.KindVideo {
		asset.Duration = 12.5
	}
	m.uploaded = append(m.uploaded, asset)
	return asset, nil
}

func (m *mediaStub) UploadAll(ctx context.Context, files []media.LocalFile) ([]models.Asset, error) {
	assets := make([]models.Asset, 0, len(files))
	for _, f := range files {
		asset, err := m.Upload(ctx, f.Path, f.Kind)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (m *mediaStub) Discard(_ context.Context, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if k != "" {
			m.discarded = append(m.discarded, k)
		}
	}
}

type pingStub struct {
	err error
}

func (p pingStub) Ping(context.Context) error { return p.err }

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingPublisher) Publish(_ context.Context, subject string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

func paginate[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}

type testAPI struct {
	handler   http.Handler
	users     *memUsers
	videos    *memVideos
	tweets    *memTweets
	comments  *memComments
	likes     *memLikes
	subs      *memSubs
	playlists *memPlaylists
	media     *mediaStub
	events    *recordingPublisher
	issuer    *auth.TokenIssuer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	api := &testAPI{
		users:     newMemUsers(),
		videos:    newMemVideos(),
		tweets:    newMemTweets(),
		comments:  newMemComments(),
		likes:     newMemLikes(),
		subs:      &memSubs{},
		playlists: newMemPlaylists(),
		media:     &mediaStub{},
		events:    &recordingPublisher{},
	}

	issuer, err := auth.NewTokenIssuer(api.users, auth.TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     time.Hour,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}
	api.issuer = issuer

	likes := engagement.NewLikes(api.likes, map[models.LikeKind]engagement.Existence{
		models.LikeKindVideo:   engagement.Exists(api.videos.FindByID),
		models.LikeKindComment: engagement.Exists(api.comments.FindByID),
		models.LikeKindTweet:   engagement.Exists(api.tweets.FindByID),
	}, api.events)
	subs := engagement.NewSubscriptions(api.subs, engagement.Exists(api.users.FindByID), api.events)

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Users:               api.users,
		Sessions:            issuer,
		Credentials:         auth.CredentialVerifier{Users: api.users},
		Videos:              api.videos,
		Tweets:              api.tweets,
		Comments:            api.comments,
		Likes:               api.likes,
		Subscriptions:       api.subs,
		Playlists:           api.playlists,
		LikeToggler:         likes,
		SubscriptionToggler: subs,
		Media:               api.media,
		Events:              api.events,
		Health:              pingStub{},
		Cookies:             CookieSettings{Secure: true},
		MaxUploadBytes:      8 << 20,
	})
	api.handler = mux

	return api
}

// seedUser stores a user. The password is hashed only when one is given.
func (a *testAPI) seedUser(t *testing.T, id, username, password string) models.User {
	t.Helper()
	user := models.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		FullName:  strings.ToUpper(username[:1]) + username[1:],
		Avatar:    "https://cdn.test/avatar/" + id,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if password != "" {
		hashed, err := auth.HashPassword(password)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		user.Password = hashed
	}
	if err := a.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

func (a *testAPI) token(t *testing.T, userID string) string {
	t.Helper()
	tokens, err := a.issuer.IssueTokenPair(context.Background(), userID)
	if err != nil {
		t.Fatalf("issue tokens for %s: %v", userID, err)
	}
	return tokens.AccessToken
}

func (a *testAPI) seedVideo(t *testing.T, id, ownerID string, published bool) models.Video {
	t.Helper()
	video := models.Video{
		ID:           id,
		OwnerID:      ownerID,
		Title:        "Video " + id,
		Description:  "About " + id,
		VideoFile:    "https://cdn.test/video/" + id,
		VideoFileKey: "video/" + id,
		Thumbnail:    "https://cdn.test/thumbnail/" + id,
		ThumbnailKey: "thumbnail/" + id,
		Duration:     30,
		Views:        5,
		IsPublished:  published,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	a.videos.put(video)
	return video
}

// do sends a JSON request through the router. A nil body sends no body.
func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.send(req)
}

func (a *testAPI) send(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

type multipartFile struct {
	field    string
	filename string
	content  string
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files []multipartFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("create form file %s: %v", f.field, err)
		}
		if _, err := part.Write([]byte(f.content)); err != nil {
			t.Fatalf("write form file %s: %v", f.field, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) envelope {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d got %d: %s", want, rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.StatusCode != want {
		t.Fatalf("expected envelope statusCode %d got %d", want, env.StatusCode)
	}
	return env
}

func httptestRequestWithCookie(method, path, name, value string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(&http.Cookie{Name: name, Value: value})
	return req
}
