// Package engagement toggles the subscription and like edges between users, channels and videos.
package engagement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// ChannelLookup resolves channels by id.
type ChannelLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// VideoLookup resolves videos by id.
type VideoLookup interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// Service toggles engagement edges. Uniqueness of each edge is enforced by the store.
type Service struct {
	users         ChannelLookup
	videos        VideoLookup
	subscriptions repositories.SubscriptionRepository
	likes         repositories.LikeRepository
	now           func() time.Time
}

// NewService constructs an engagement Service.
func NewService(users ChannelLookup, videos VideoLookup, subscriptions repositories.SubscriptionRepository, likes repositories.LikeRepository) *Service {
	return &Service{
		users:         users,
		videos:        videos,
		subscriptions: subscriptions,
		likes:         likes,
		now:           time.Now,
	}
}

// ToggleSubscription subscribes subscriberID to channelID, or unsubscribes when the
// edge already exists. It returns whether the subscriber is subscribed afterwards.
func (s *Service) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return false, apperr.Validation("channel id is missing")
	}
	if channelID == subscriberID {
		return false, apperr.Validation("you cannot subscribe to your own channel")
	}

	if _, err := s.users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, apperr.NotFound("channel does not exist")
		}
		return false, apperr.Unavailable("failed to load channel", err)
	}

	return toggle(
		func() error {
			return s.subscriptions.Create(ctx, models.Subscription{SubscriberID: subscriberID, ChannelID: channelID, CreatedAt: s.now().UTC()})
		},
		func() error { return s.subscriptions.Delete(ctx, subscriberID, channelID) },
		func() (bool, error) { return s.subscriptions.Exists(ctx, subscriberID, channelID) },
	)
}

// ToggleLike likes or unlikes a video visible to userID and returns the new state.
func (s *Service) ToggleLike(ctx context.Context, userID, videoID string) (bool, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return false, apperr.Validation("video id is missing")
	}

	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, apperr.NotFound("video not found")
		}
		return false, apperr.Unavailable("failed to load video", err)
	}
	if !video.IsPublished && video.OwnerID != userID {
		return false, apperr.NotFound("video not found")
	}

	return toggle(
		func() error {
			return s.likes.Create(ctx, models.Like{VideoID: videoID, LikedBy: userID, CreatedAt: s.now().UTC()})
		},
		func() error { return s.likes.Delete(ctx, videoID, userID) },
		func() (bool, error) { return s.likes.Exists(ctx, videoID, userID) },
	)
}

// toggle removes an existing edge or creates a missing one. A concurrent toggle that
// wins the race surfaces as a conflict or not-found from the store and resolves to
// the state the store now holds.
func toggle(create, remove func() error, exists func() (bool, error)) (bool, error) {
	present, err := exists()
	if err != nil {
		return false, apperr.Unavailable("failed to read engagement", err)
	}

	if present {
		err = remove()
	} else {
		err = create()
	}

	switch {
	case err == nil:
		return !present, nil
	case errors.Is(err, repositories.ErrConflict), errors.Is(err, repositories.ErrNotFound):
		now, existsErr := exists()
		if existsErr != nil {
			return false, apperr.Unavailable("failed to read engagement", existsErr)
		}
		return now, nil
	default:
		return false, apperr.Unavailable("failed to update engagement", err)
	}
}
