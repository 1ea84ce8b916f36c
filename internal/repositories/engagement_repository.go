package repositories

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// SubscriptionRepository stores subscriber/channel edges. Pairs are unique.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountSubscribers(ctx context.Context, channelID string) (int, error)
	CountSubscriptions(ctx context.Context, subscriberID string) (int, error)
}

// LikeRepository stores video likes. Pairs are unique.
type LikeRepository interface {
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, videoID, userID string) error
	Exists(ctx context.Context, videoID, userID string) (bool, error)
	CountForVideo(ctx context.Context, videoID string) (int, error)
}

// HistoryRepository stores per-user watch history.
type HistoryRepository interface {
	// Record moves videoID to the front of the user's history.
	Record(ctx context.Context, userID, videoID string, at time.Time) error
	// List returns video ids most recent first. A limit <= 0 means no limit.
	List(ctx context.Context, userID string, limit int) ([]string, error)
}
