package engagement

import (
	"context"
	"errors"
	"testing"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

func newTestService(t *testing.T) (*Service, *repositories.MemoryStore) {
	t.Helper()
	store := repositories.NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"alice", "bob"} {
		if err := store.Users.Create(ctx, models.User{ID: id, Username: id, Email: id + "@example.com"}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	for _, v := range []models.Video{
		{ID: "public", OwnerID: "alice", IsPublished: true},
		{ID: "draft", OwnerID: "alice"},
	} {
		if err := store.Videos.Create(ctx, v); err != nil {
			t.Fatalf("seed video: %v", err)
		}
	}
	return NewService(store.Users, store.Videos, store.Subscriptions, store.Likes), store
}

func TestToggleSubscription(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	subscribed, err := svc.ToggleSubscription(ctx, "bob", "alice")
	if err != nil || !subscribed {
		t.Fatalf("expected subscribed, got %v %v", subscribed, err)
	}
	if n, _ := store.Subscriptions.CountSubscribers(ctx, "alice"); n != 1 {
		t.Fatalf("expected one subscriber, got %d", n)
	}

	subscribed, err = svc.ToggleSubscription(ctx, "bob", "alice")
	if err != nil || subscribed {
		t.Fatalf("expected unsubscribed, got %v %v", subscribed, err)
	}
	if n, _ := store.Subscriptions.CountSubscribers(ctx, "alice"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}

	if _, err := svc.ToggleSubscription(ctx, "alice", "alice"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for self subscription, got %v", err)
	}
	if _, err := svc.ToggleSubscription(ctx, "bob", "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestToggleLike(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	liked, err := svc.ToggleLike(ctx, "bob", "public")
	if err != nil || !liked {
		t.Fatalf("expected liked, got %v %v", liked, err)
	}
	liked, err = svc.ToggleLike(ctx, "bob", "public")
	if err != nil || liked {
		t.Fatalf("expected unliked, got %v %v", liked, err)
	}
	if n, _ := store.Likes.CountForVideo(ctx, "public"); n != 0 {
		t.Fatalf("expected zero likes, got %d", n)
	}

	if _, err := svc.ToggleLike(ctx, "bob", "draft"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected drafts hidden from other users, got %v", err)
	}
	if liked, err := svc.ToggleLike(ctx, "alice", "draft"); err != nil || !liked {
		t.Fatalf("owner should be able to like own draft, got %v %v", liked, err)
	}
}

type racingLikes struct {
	repositories.LikeRepository
}

func (r racingLikes) Create(ctx context.Context, like models.Like) error {
	// Another request created the edge between our read and our write.
	_ = r.LikeRepository.Create(ctx, like)
	return repositories.ErrConflict
}

func TestToggleLikeResolvesLostRace(t *testing.T) {
	_, store := newTestService(t)
	svc := NewService(store.Users, store.Videos, store.Subscriptions, racingLikes{LikeRepository: store.Likes})

	liked, err := svc.ToggleLike(context.Background(), "bob", "public")
	if err != nil || !liked {
		t.Fatalf("expected conflict to resolve to the stored state, got %v %v", liked, err)
	}
}
