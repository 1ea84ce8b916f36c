package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/catalog"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/views"
)

// SessionService manages login sessions and credentials.
type SessionService interface {
	Authenticator
	Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// AccountService registers users and maintains their profiles.
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (models.User, error)
	CurrentUser(ctx context.Context, userID string) (models.User, error)
	UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID string, upload *storage.Upload) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID string, upload *storage.Upload) (models.User, error)
}

// ViewService composes the read models served to clients.
type ViewService interface {
	ChannelProfile(ctx context.Context, viewerID, username string) (views.ChannelProfile, error)
	VideoFeed(ctx context.Context, q views.FeedQuery) (views.Page, error)
	VideoDetail(ctx context.Context, viewerID, videoID string) (views.VideoDetail, error)
	WatchHistory(ctx context.Context, viewerID string) ([]views.VideoSummary, error)
}

// CatalogService mutates videos on behalf of their owners.
type CatalogService interface {
	Upload(ctx context.Context, ownerID string, in catalog.UploadInput) (models.Video, error)
	Update(ctx context.Context, actorID, videoID string, in catalog.UpdateInput) (models.Video, error)
	Delete(ctx context.Context, actorID, videoID string) error
	TogglePublish(ctx context.Context, actorID, videoID string) (models.Video, error)
}

// EngagementService toggles subscriptions and likes.
type EngagementService interface {
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
	ToggleLike(ctx context.Context, userID, videoID string) (bool, error)
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
