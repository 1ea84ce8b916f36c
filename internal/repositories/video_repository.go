package repositories

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	// ListPublished returns one page of published videos and the total match count.
	ListPublished(ctx context.Context, query models.VideoQuery) ([]models.Video, int, error)
	// Update rewrites title, description and thumbnail. The publish flag is only
	// changed through TogglePublished.
	Update(ctx context.Context, video models.Video) error
	// TogglePublished atomically flips the publish flag and returns the updated video.
	TogglePublished(ctx context.Context, id string, at time.Time) (models.Video, error)
	// Delete removes the video together with its likes and watch-history entries.
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int64, error)
}
