package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/vidtube/backend/internal/models"
)

func TestTweetHandlerCreateAndList(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u-1", "ann", "")
	token := api.token(t, "u-1")

	expectStatus(t, api.do(t, http.MethodPost, "/tweet", contentRequest{Content: "  "}, token), http.StatusBadRequest)

	for _, content := range []string{"first", "second"} {
		env := expectStatus(t, api.do(t, http.MethodPost, "/tweet", contentRequest{Content: content}, token), http.StatusCreated)
		if env.Message != "Tweet created successfully" {
			t.Fatalf("unexpected message %q", env.Message)
		}
	}

	env := expectStatus(t, api.do(t, http.MethodGet, "/tweet/user/u-1?limit=1", nil, token), http.StatusOK)
	var views []models.TweetView
	if err := json.Unmarshal(env.Data, &views); err != nil {
		t.Fatalf("decode tweets: %v", err)
	}
	if len(views) != 1 || views[0].Content != "first" {
		t.Fatalf("expected the first page with one tweet, got %+v", views)
	}
	if views[0].Owner.ID != "u-1" || views[0].Owner.Username != "ann" {
		t.Fatalf("expected owner to be embedded, got %+v", views[0].Owner)
	}
}

func TestTweetHandlerListPagination(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u-1", "ann", "")
	api.seedUser(t, "u-2", "bob", "")
	for i := 1; i <= 12; i++ {
		tweet := models.Tweet{ID: fmt.Sprintf("t-%02d", i), OwnerID: "u-1", Content: fmt.Sprintf("tweet %d", i)}
		if err := api.tweets.Create(context.Background(), tweet); err != nil {
			t.Fatalf("seed tweet: %v", err)
		}
	}
	if err := api.tweets.Create(context.Background(), models.Tweet{ID: "t-other", OwnerID: "u-2", Content: "elsewhere"}); err != nil {
		t.Fatalf("seed tweet: %v", err)
	}

	env := expectStatus(t, api.do(t, http.MethodGet, "/tweet/user/u-1?page=2&limit=5", nil, api.token(t, "u-1")), http.StatusOK)
	var views []models.TweetView
	if err := json.Unmarshal(env.Data, &views); err != nil {
		t.Fatalf("decode tweets: %v", err)
	}
	if len(views) != 5 {
		t.Fatalf("expected 5 tweets, got %d: %+v", len(views), views)
	}
	for i, view := range views {
		if want := fmt.Sprintf("tweet %d", i+6); view.Content != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, view.Content)
		}
	}
}

func TestTweetHandlerUpdateByNonOwnerIsRejected(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "x", "xavier", "")
	api.seedUser(t, "y", "yolanda", "")
	if err := api.tweets.Create(context.Background(), models.Tweet{ID: "t-1", OwnerID: "x", Content: "original"}); err != nil {
		t.Fatalf("seed tweet: %v", err)
	}

	rec := api.do(t, http.MethodPatch, "/tweet/t-1", contentRequest{Content: "defaced"}, api.token(t, "y"))
	env := expectStatus(t, rec, http.StatusForbidden)
	if env.Success {
		t.Fatal("expected failure envelope")
	}

	stored, _ := api.tweets.FindByID(context.Background(), "t-1")
	if stored.Content != "original" {
		t.Fatalf("expected content to be unchanged, got %q", stored.Content)
	}

	expectStatus(t, api.do(t, http.MethodDelete, "/tweet/t-1", nil, api.token(t, "y")), http.StatusForbidden)
	if _, err := api.tweets.FindByID(context.Background(), "t-1"); err != nil {
		t.Fatal("expected tweet to survive a foreign delete")
	}
}

func TestTweetHandlerUpdateAndDelete(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "x", "xavier", "")
	token := api.token(t, "x")
	if err := api.tweets.Create(context.Background(), models.Tweet{ID: "t-1", OwnerID: "x", Content: "original"}); err != nil {
		t.Fatalf("seed tweet: %v", err)
	}

	env := expectStatus(t, api.do(t, http.MethodPatch, "/tweet/t-1", contentRequest{Content: "edited"}, token), http.StatusOK)
	if env.Message != "Tweet updated successfully" {
		t.Fatalf("unexpected message %q", env.Message)
	}
	stored, _ := api.tweets.FindByID(context.Background(), "t-1")
	if stored.Content != "edited" {
		t.Fatalf("expected content to change, got %q", stored.Content)
	}

	expectStatus(t, api.do(t, http.MethodDelete, "/tweet/t-1", nil, token), http.StatusOK)
	env = expectStatus(t, api.do(t, http.MethodDelete, "/tweet/t-1", nil, token), http.StatusNotFound)
	if env.Message != "Tweet not found" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}
