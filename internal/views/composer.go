// Package views builds the denormalized read models served to clients: channel
// profiles, the published video feed, video detail and watch history.
package views

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// UserReader loads channel records.
type UserReader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// VideoReader loads videos and bumps their view counters.
type VideoReader interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	ListPublished(ctx context.Context, query models.VideoQuery) ([]models.Video, int, error)
	IncrementViews(ctx context.Context, id string) (int64, error)
}

// SubscriptionReader answers subscription edge queries.
type SubscriptionReader interface {
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountSubscribers(ctx context.Context, channelID string) (int, error)
	CountSubscriptions(ctx context.Context, subscriberID string) (int, error)
}

// LikeReader answers like edge queries.
type LikeReader interface {
	Exists(ctx context.Context, videoID, userID string) (bool, error)
	CountForVideo(ctx context.Context, videoID string) (int, error)
}

// HistoryStore records and lists watched videos.
type HistoryStore interface {
	Record(ctx context.Context, userID, videoID string, at time.Time) error
	List(ctx context.Context, userID string, limit int) ([]string, error)
}

// Sources groups the collections the composer joins over.
type Sources struct {
	Users         UserReader
	Videos        VideoReader
	Subscriptions SubscriptionReader
	Likes         LikeReader
	History       HistoryStore
}

// Composer assembles read models. Every view filters first, joins second and
// projects last; side effects only run once the read has succeeded.
type Composer struct {
	src Sources
	now func() time.Time
}

// NewComposer constructs a Composer over the provided sources.
func NewComposer(src Sources) *Composer {
	if src.Users == nil || src.Videos == nil || src.Subscriptions == nil || src.Likes == nil || src.History == nil {
		panic("views: all sources must be provided")
	}
	return &Composer{src: src, now: time.Now}
}

// ChannelProfile resolves a channel by username and attaches subscription counts.
func (c *Composer) ChannelProfile(ctx context.Context, viewerID, username string) (ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return ChannelProfile{}, apperr.Validation("username is missing")
	}

	ctx, span := logging.StartSpan(ctx, "views.channel_profile")
	defer span.End()

	channel, err := c.src.Users.FindByUsername(ctx, username)
	if err != nil {
		return ChannelProfile{}, translate(err, "channel does not exist")
	}

	subscribers, err := c.src.Subscriptions.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return ChannelProfile{}, apperr.Unavailable("failed to count subscribers", err)
	}
	following, err := c.src.Subscriptions.CountSubscriptions(ctx, channel.ID)
	if err != nil {
		return ChannelProfile{}, apperr.Unavailable("failed to count subscriptions", err)
	}

	subscribed := false
	if viewerID != "" {
		if subscribed, err = c.src.Subscriptions.Exists(ctx, viewerID, channel.ID); err != nil {
			return ChannelProfile{}, apperr.Unavailable("failed to check subscription", err)
		}
	}

	return ChannelProfile{
		ID:                        channel.ID,
		Username:                  channel.Username,
		FullName:                  channel.FullName,
		Email:                     channel.Email,
		Avatar:                    channel.Avatar,
		CoverImage:                channel.CoverImage,
		SubscribersCount:          subscribers,
		ChannelsSubscribedToCount: following,
		IsSubscribed:              subscribed,
	}, nil
}

// VideoFeed returns one page of published videos matching q.
func (c *Composer) VideoFeed(ctx context.Context, q FeedQuery) (Page, error) {
	query, err := normalizeFeedQuery(q)
	if err != nil {
		return Page{}, err
	}

	ctx, span := logging.StartSpan(ctx, "views.video_feed")
	defer span.End()

	videos, total, err := c.src.Videos.ListPublished(ctx, query)
	if err != nil {
		return Page{}, apperr.Unavailable("failed to list videos", err)
	}

	summaries, err := c.summarize(ctx, videos)
	if err != nil {
		return Page{}, err
	}

	totalPages := (total + query.Limit - 1) / query.Limit

	return Page{
		Videos:      summaries,
		TotalVideos: total,
		Page:        q.Page,
		Limit:       query.Limit,
		TotalPages:  totalPages,
		HasNextPage: q.Page < totalPages,
		HasPrevPage: q.Page > 1,
	}, nil
}

func normalizeFeedQuery(q FeedQuery) (models.VideoQuery, error) {
	if q.Page < 1 {
		return models.VideoQuery{}, apperr.Validation("page must be a positive integer")
	}
	if q.Limit < 1 {
		return models.VideoQuery{}, apperr.Validation("limit must be a positive integer")
	}
	limit := min(q.Limit, MaxPageSize)

	sortBy := strings.TrimSpace(q.SortBy)
	switch sortBy {
	case "":
		sortBy = models.SortByCreatedAt
	case models.SortByCreatedAt, models.SortByViews, models.SortByDuration:
	default:
		return models.VideoQuery{}, apperr.Validation("sortBy must be one of views, createdAt, duration")
	}

	var asc bool
	switch strings.ToLower(strings.TrimSpace(q.SortType)) {
	case "", models.SortDesc:
	case models.SortAsc:
		asc = true
	default:
		return models.VideoQuery{}, apperr.Validation("sortType must be asc or desc")
	}

	offset := math.MaxInt32
	if q.Page-1 <= math.MaxInt32/limit {
		offset = (q.Page - 1) * limit
	}

	return models.VideoQuery{
		Text:    strings.TrimSpace(q.Text),
		OwnerID: strings.TrimSpace(q.OwnerID),
		SortBy:  sortBy,
		SortAsc: asc,
		Offset:  offset,
		Limit:   limit,
	}, nil
}

// VideoDetail joins a video with its likes and owner, then counts the view and
// records it in the viewer's history. Unpublished videos are only visible to their owner.
func (c *Composer) VideoDetail(ctx context.Context, viewerID, videoID string) (VideoDetail, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return VideoDetail{}, apperr.Validation("video id is missing")
	}

	ctx, span := logging.StartSpan(ctx, "views.video_detail")
	defer span.End()

	video, err := c.src.Videos.FindByID(ctx, videoID)
	if err != nil {
		return VideoDetail{}, translate(err, "video not found")
	}
	if !visibleTo(video, viewerID) {
		return VideoDetail{}, apperr.NotFound("video not found")
	}

	owner, err := c.src.Users.FindByID(ctx, video.OwnerID)
	if err != nil {
		return VideoDetail{}, translate(err, "video owner not found")
	}

	likes, err := c.src.Likes.CountForVideo(ctx, video.ID)
	if err != nil {
		return VideoDetail{}, apperr.Unavailable("failed to count likes", err)
	}
	subscribers, err := c.src.Subscriptions.CountSubscribers(ctx, owner.ID)
	if err != nil {
		return VideoDetail{}, apperr.Unavailable("failed to count subscribers", err)
	}

	var liked, subscribed bool
	if viewerID != "" {
		if liked, err = c.src.Likes.Exists(ctx, video.ID, viewerID); err != nil {
			return VideoDetail{}, apperr.Unavailable("failed to check like", err)
		}
		if subscribed, err = c.src.Subscriptions.Exists(ctx, viewerID, owner.ID); err != nil {
			return VideoDetail{}, apperr.Unavailable("failed to check subscription", err)
		}
	}

	views, err := c.src.Videos.IncrementViews(ctx, video.ID)
	if err != nil {
		return VideoDetail{}, translate(err, "video not found")
	}

	if viewerID != "" {
		if err := c.src.History.Record(ctx, viewerID, video.ID, c.now().UTC()); err != nil {
			logging.FromContext(ctx).Warn("failed to record watch history",
				slog.String("user_id", viewerID),
				slog.String("video_id", video.ID),
				slog.Any("error", err),
			)
		}
	}

	return VideoDetail{
		ID:          video.ID,
		Title:       video.Title,
		Description: video.Description,
		VideoFile:   video.VideoFile,
		Thumbnail:   video.Thumbnail,
		Duration:    video.Duration,
		Views:       views,
		IsPublished: video.IsPublished,
		CreatedAt:   video.CreatedAt,
		LikesCount:  likes,
		IsLiked:     liked,
		Owner: DetailOwner{
			OwnerSummary:     ownerSummary(owner),
			SubscribersCount: subscribers,
			IsSubscribed:     subscribed,
		},
	}, nil
}

// WatchHistory resolves the viewer's history, most recent first. Videos that were
// deleted or are no longer visible to the viewer are skipped.
func (c *Composer) WatchHistory(ctx context.Context, viewerID string) ([]VideoSummary, error) {
	if viewerID == "" {
		return nil, apperr.Unauthorized("unauthorized request", nil)
	}

	ctx, span := logging.StartSpan(ctx, "views.watch_history")
	defer span.End()

	ids, err := c.src.History.List(ctx, viewerID, 0)
	if err != nil {
		return nil, apperr.Unavailable("failed to load watch history", err)
	}
	if len(ids) == 0 {
		return []VideoSummary{}, nil
	}

	found, err := c.src.Videos.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable("failed to load videos", err)
	}

	ordered := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		video, ok := found[id]
		if !ok || !visibleTo(video, viewerID) {
			continue
		}
		ordered = append(ordered, video)
	}

	return c.summarize(ctx, ordered)
}

func (c *Composer) summarize(ctx context.Context, videos []models.Video) ([]VideoSummary, error) {
	out := make([]VideoSummary, 0, len(videos))
	if len(videos) == 0 {
		return out, nil
	}

	ownerIDs := make([]string, 0, len(videos))
	seen := make(map[string]struct{}, len(videos))
	for _, video := range videos {
		if _, ok := seen[video.OwnerID]; ok {
			continue
		}
		seen[video.OwnerID] = struct{}{}
		ownerIDs = append(ownerIDs, video.OwnerID)
	}

	owners, err := c.src.Users.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, apperr.Unavailable("failed to load video owners", err)
	}

	for _, video := range videos {
		owner, ok := owners[video.OwnerID]
		if !ok {
			owner = models.User{ID: video.OwnerID}
		}
		out = append(out, VideoSummary{
			ID:          video.ID,
			Title:       video.Title,
			Description: video.Description,
			VideoFile:   video.VideoFile,
			Thumbnail:   video.Thumbnail,
			Duration:    video.Duration,
			Views:       video.Views,
			CreatedAt:   video.CreatedAt,
			Owner:       ownerSummary(owner),
		})
	}
	return out, nil
}

func ownerSummary(user models.User) OwnerSummary {
	return OwnerSummary{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Avatar:   user.Avatar,
	}
}

func visibleTo(video models.Video, viewerID string) bool {
	return video.IsPublished || (viewerID != "" && video.OwnerID == viewerID)
}

func translate(err error, notFound string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Unavailable("failed to load record", err)
}
