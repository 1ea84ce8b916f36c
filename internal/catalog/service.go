// Package catalog manages the lifecycle of uploaded videos: upload, edit, publish and delete.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/ownership"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// VideoStore is the slice of the video repository the catalog mutates.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	TogglePublished(ctx context.Context, id string, at time.Time) (models.Video, error)
	Delete(ctx context.Context, id string) error
}

// UploadInput carries a new video and its thumbnail.
type UploadInput struct {
	Title       string
	Description string
	Video       *storage.Upload
	Thumbnail   *storage.Upload
}

// UpdateInput carries optional replacements. Nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Thumbnail   *storage.Upload
}

// Config tunes where uploads are spooled before they are probed.
type Config struct {
	SpoolDir string
}

// Service implements the video catalog.
type Service struct {
	videos   VideoStore
	blobs    storage.BlobStore
	reaper   storage.Reaper
	prober   media.DurationProber
	spoolDir string
	now      func() time.Time
}

// NewService constructs a catalog Service. prober may be nil, in which case durations stay zero.
func NewService(videos VideoStore, blobs storage.BlobStore, reaper storage.Reaper, prober media.DurationProber, cfg Config) *Service {
	if videos == nil || blobs == nil || reaper == nil {
		panic("catalog: videos, blobs and reaper must be provided")
	}
	return &Service{
		videos:   videos,
		blobs:    blobs,
		reaper:   reaper,
		prober:   prober,
		spoolDir: cfg.SpoolDir,
		now:      time.Now,
	}
}

// Upload stores the video and thumbnail blobs and creates an unpublished record.
// Either both blobs and the record exist afterwards or none of them do.
func (s *Service) Upload(ctx context.Context, ownerID string, in UploadInput) (models.Video, error) {
	if ownerID == "" {
		return models.Video{}, apperr.Unauthorized("unauthorized request", nil)
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return models.Video{}, apperr.Validation("title and description are required")
	}
	if in.Video == nil || in.Video.Body == nil {
		return models.Video{}, apperr.Validation("video file is required")
	}
	if in.Thumbnail == nil || in.Thumbnail.Body == nil {
		return models.Video{}, apperr.Validation("thumbnail is required")
	}

	ctx, span := logging.StartSpan(ctx, "catalog.upload")
	defer span.End()
	logger := logging.FromContext(ctx)

	spooled, err := media.Spool(s.spoolDir, in.Video.Filename, in.Video.Body)
	if err != nil {
		return models.Video{}, apperr.ValidationCause("video file could not be read", err)
	}
	defer func() {
		if err := spooled.Remove(); err != nil {
			logger.Warn("failed to remove spooled upload", slog.String("path", spooled.Path), slog.Any("error", err))
		}
	}()

	duration := s.probe(ctx, spooled.Path)

	file, err := spooled.Open()
	if err != nil {
		return models.Video{}, apperr.Unavailable("failed to reopen video upload", err)
	}
	videoLocation, err := s.blobs.Save(ctx, storage.ObjectKey("videos", in.Video.Filename), file)
	file.Close()
	if err != nil {
		return models.Video{}, apperr.Unavailable("failed to upload video", err)
	}

	thumbnailLocation, err := s.blobs.Save(ctx, storage.ObjectKey("thumbnails", in.Thumbnail.Filename), in.Thumbnail.Body)
	if err != nil {
		s.discard(ctx, videoLocation)
		return models.Video{}, apperr.Unavailable("failed to upload thumbnail", err)
	}

	now := s.now().UTC()
	video := models.Video{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		VideoFile:   videoLocation,
		Thumbnail:   thumbnailLocation,
		Duration:    duration,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.videos.Create(ctx, video); err != nil {
		s.discard(ctx, videoLocation, thumbnailLocation)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperr.NotFound("video owner does not exist")
		}
		return models.Video{}, apperr.Unavailable("failed to create video", err)
	}

	logger.Info("video uploaded",
		slog.String("video_id", video.ID),
		slog.String("owner_id", ownerID),
		slog.Int64("bytes", spooled.Size),
	)
	return video, nil
}

func (s *Service) probe(ctx context.Context, path string) float64 {
	if s.prober == nil {
		return 0
	}
	seconds, err := s.prober.Duration(ctx, path)
	if err != nil {
		logging.FromContext(ctx).Warn("duration probe failed", slog.Any("error", err))
		return 0
	}
	return seconds
}

// Update edits the title, description or thumbnail of a video owned by actorID.
func (s *Service) Update(ctx context.Context, actorID, videoID string, in UpdateInput) (models.Video, error) {
	video, err := s.owned(ctx, actorID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if in.Title == nil && in.Description == nil && (in.Thumbnail == nil || in.Thumbnail.Body == nil) {
		return models.Video{}, apperr.Validation("nothing to update")
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return models.Video{}, apperr.Validation("title must not be empty")
		}
		video.Title = title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return models.Video{}, apperr.Validation("description must not be empty")
		}
		video.Description = description
	}

	previousThumbnail := ""
	if in.Thumbnail != nil && in.Thumbnail.Body != nil {
		location, err := s.blobs.Save(ctx, storage.ObjectKey("thumbnails", in.Thumbnail.Filename), in.Thumbnail.Body)
		if err != nil {
			return models.Video{}, apperr.Unavailable("failed to upload thumbnail", err)
		}
		previousThumbnail = video.Thumbnail
		video.Thumbnail = location
	}

	video.UpdatedAt = s.now().UTC()
	if err := s.videos.Update(ctx, video); err != nil {
		if previousThumbnail != "" {
			s.discard(ctx, video.Thumbnail)
		}
		return models.Video{}, translate(err)
	}

	s.discard(ctx, previousThumbnail)
	return video, nil
}

// Delete removes a video owned by actorID together with its likes and history
// entries, then schedules its blobs for removal.
func (s *Service) Delete(ctx context.Context, actorID, videoID string) error {
	video, err := s.owned(ctx, actorID, videoID)
	if err != nil {
		return err
	}

	if err := s.videos.Delete(ctx, video.ID); err != nil {
		return translate(err)
	}

	s.discard(ctx, video.VideoFile, video.Thumbnail)
	logging.FromContext(ctx).Info("video deleted", slog.String("video_id", video.ID))
	return nil
}

// TogglePublish flips the published flag of a video owned by actorID.
func (s *Service) TogglePublish(ctx context.Context, actorID, videoID string) (models.Video, error) {
	video, err := s.owned(ctx, actorID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	toggled, err := s.videos.TogglePublished(ctx, video.ID, s.now().UTC())
	if err != nil {
		return models.Video{}, translate(err)
	}
	return toggled, nil
}

// owned loads the video and checks ownership before any payload is looked at.
func (s *Service) owned(ctx context.Context, actorID, videoID string) (models.Video, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return models.Video{}, apperr.Validation("video id is missing")
	}

	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, translate(err)
	}
	if err := ownership.AssertOwner(actorID, video); err != nil {
		return models.Video{}, err
	}
	return video, nil
}

func (s *Service) discard(ctx context.Context, locations ...string) {
	if err := s.reaper.Enqueue(context.WithoutCancel(ctx), locations...); err != nil {
		logging.FromContext(ctx).Warn("failed to schedule blob removal",
			slog.Any("locations", locations),
			slog.Any("error", err),
		)
	}
}

func translate(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("video not found")
	}
	return apperr.Unavailable("failed to access video record", err)
}
