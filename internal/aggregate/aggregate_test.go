package aggregate

import (
	"context"
	"net/url"
	"testing"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
)

type profileStub struct {
	profiles map[string]models.OwnerProfile
	calls    [][]string
}

func (s *profileStub) ProfilesByIDs(_ context.Context, ids []string) (map[string]models.OwnerProfile, error) {
	s.calls = append(s.calls, ids)
	out := make(map[string]models.OwnerProfile)
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type videoStub struct {
	videos map[string]models.Video
	calls  int
}

func (s *videoStub) VideosByIDs(_ context.Context, ids []string) (map[string]models.Video, error) {
	s.calls++
	out := make(map[string]models.Video)
	for _, id := range ids {
		if v, ok := s.videos[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func TestTweetsResolveOwnersInOneBatch(t *testing.T) {
	profiles := &profileStub{profiles: map[string]models.OwnerProfile{
		"u1": {ID: "u1", Username: "alice", FullName: "Alice", Avatar: "https://cdn/a.png"},
	}}
	tweets := []models.Tweet{
		{ID: "t1", OwnerID: "u1", Content: "first"},
		{ID: "t2", OwnerID: "gone", Content: "orphan"},
		{ID: "t3", OwnerID: "u1", Content: "second"},
	}

	views, err := Tweets(context.Background(), profiles, tweets)
	if err != nil {
		t.Fatalf("tweets: %v", err)
	}

	if len(profiles.calls) != 1 || len(profiles.calls[0]) != 2 {
		t.Fatalf("expected a single batched lookup of 2 ids, got %v", profiles.calls)
	}
	if len(views) != 2 || views[0].ID != "t1" || views[1].ID != "t3" {
		t.Fatalf("unexpected views: %+v", views)
	}
	if views[0].Owner.Username != "alice" || views[0].Owner.Avatar == "" {
		t.Fatalf("expected owner to be embedded: %+v", views[0].Owner)
	}
}

func TestLikedVideosTwoLevelEnrichment(t *testing.T) {
	videos := &videoStub{videos: map[string]models.Video{
		"v1": {ID: "v1", OwnerID: "u2", Title: "One", Views: 10, Duration: 12.5, VideoFile: "f1", Thumbnail: "th1"},
		"v3": {ID: "v3", OwnerID: "u3", Title: "Three"},
	}}
	profiles := &profileStub{profiles: map[string]models.OwnerProfile{
		"u2": {ID: "u2", Username: "bob"},
	}}
	likes := []models.Like{
		{ID: "l1", LikedBy: "u1", Target: models.LikeTarget{Kind: models.LikeKindVideo, ID: "v1"}},
		{ID: "l2", LikedBy: "u1", Target: models.LikeTarget{Kind: models.LikeKindComment, ID: "c1"}},
		{ID: "l3", LikedBy: "u1", Target: models.LikeTarget{Kind: models.LikeKindVideo, ID: "deleted"}},
		{ID: "l4", LikedBy: "u1", Target: models.LikeTarget{Kind: models.LikeKindVideo, ID: "v3"}},
	}

	liked, err := LikedVideos(context.Background(), videos, profiles, likes)
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}

	if videos.calls != 1 || len(profiles.calls) != 1 {
		t.Fatalf("expected one lookup per level, got videos=%d profiles=%d", videos.calls, len(profiles.calls))
	}
	if len(liked) != 1 {
		t.Fatalf("expected only fully resolvable likes, got %+v", liked)
	}
	got := liked[0]
	if got.ID != "v1" || got.Views != 10 || got.Duration != 12.5 || got.OwnerDetails.Username != "bob" {
		t.Fatalf("unexpected projection: %+v", got)
	}
}

func TestEmptyInputsSkipLookups(t *testing.T) {
	profiles := &profileStub{}
	videos := &videoStub{}

	views, err := Comments(context.Background(), profiles, nil)
	if err != nil || views == nil || len(views) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v err=%v", views, err)
	}
	liked, err := LikedVideos(context.Background(), videos, profiles, nil)
	if err != nil || liked == nil || len(liked) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v err=%v", liked, err)
	}
	if len(profiles.calls) != 0 || videos.calls != 0 {
		t.Fatal("expected no lookups for empty input")
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query      string
		want       Page
		wantOffset int
		wantErr    bool
	}{
		{query: "", want: Page{Number: 1, Limit: 10}, wantOffset: 0},
		{query: "page=3&limit=5", want: Page{Number: 3, Limit: 5}, wantOffset: 10},
		{query: "page=2&limit=1000", want: Page{Number: 2, Limit: MaxLimit}, wantOffset: MaxLimit},
		{query: "page=0", wantErr: true},
		{query: "limit=abc", wantErr: true},
		{query: "limit=-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			page, err := ParsePage(q)
			if tt.wantErr {
				if !apperrors.IsKind(err, apperrors.KindValidation) {
					t.Fatalf("expected validation error got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse page: %v", err)
			}
			if page != tt.want || page.Offset() != tt.wantOffset {
				t.Fatalf("expected %+v offset %d got %+v offset %d", tt.want, tt.wantOffset, page, page.Offset())
			}
		})
	}
}

func TestPagesPartitionOrderedRows(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5, 6, 7}
	var seen []int
	for n := 1; n <= 3; n++ {
		p := Page{Number: n, Limit: 3}
		start := min(p.Offset(), len(rows))
		end := min(start+p.Limit, len(rows))
		seen = append(seen, rows[start:end]...)
	}
	if len(seen) != len(rows) {
		t.Fatalf("expected pages to cover every row exactly once, got %v", seen)
	}
	for i := range rows {
		if seen[i] != rows[i] {
			t.Fatalf("expected ordered rows, got %v", seen)
		}
	}
}
