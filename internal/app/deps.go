package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/catalog"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/views"
)

// repositorySet groups the collections every service is built on.
type repositorySet struct {
	users         repositories.UserRepository
	videos        repositories.VideoRepository
	subscriptions repositories.SubscriptionRepository
	likes         repositories.LikeRepository
	history       repositories.HistoryRepository
}

func postgresRepositories(pool db.Pool) repositorySet {
	return repositorySet{
		users:         repositories.NewPostgresUserRepository(pool),
		videos:        repositories.NewPostgresVideoRepository(pool),
		subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		likes:         repositories.NewPostgresLikeRepository(pool),
		history:       repositories.NewPostgresHistoryRepository(pool),
	}
}

func memoryRepositories() repositorySet {
	store := repositories.NewMemoryStore()
	return repositorySet{
		users:         store.Users,
		videos:        store.Videos,
		subscriptions: store.Subscriptions,
		likes:         store.Likes,
		history:       store.History,
	}
}

// newBlobStore returns the S3 store when a bucket is configured. The in-memory store
// is only accepted together with the in-memory repositories.
func newBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	if cfg.StoreMode == config.StoreMemory && cfg.ObjectStore.Bucket == "" {
		return storage.NewMemoryStorage(cfg.ObjectStore.PublicBaseURL), nil
	}
	return storage.NewS3Storage(ctx, cfg.ObjectStore)
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup drains background blob deletion.
func buildDependencies(cfg config.Config, repos repositorySet, blobs storage.BlobStore, health handlers.Pinger, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.Tokens.AccessSecret,
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshSecret: cfg.Tokens.RefreshSecret,
		RefreshTTL:    cfg.Tokens.RefreshTTL,
		Issuer:        cfg.Tokens.Issuer,
	})
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	reaper := storage.NewReaper(blobs, storage.ReaperConfig{
		Workers:   cfg.Reaper.Workers,
		QueueSize: cfg.Reaper.QueueSize,
		Timeout:   cfg.Reaper.Timeout,
	}, logger)

	hasher := auth.BcryptHasher{}
	prober := media.NewFFProbe(cfg.Media.FFProbePath, cfg.Media.FFProbeTimeout)

	deps := handlers.Dependencies{
		Sessions: auth.NewManager(tokens, repos.users, hasher),
		Accounts: accounts.NewService(repos.users, blobs, reaper, hasher),
		Views: views.NewComposer(views.Sources{
			Users:         repos.users,
			Videos:        repos.videos,
			Subscriptions: repos.subscriptions,
			Likes:         repos.likes,
			History:       repos.history,
		}),
		Catalog:        catalog.NewService(repos.videos, blobs, reaper, prober, catalog.Config{SpoolDir: cfg.Media.SpoolDir}),
		Engagement:     engagement.NewService(repos.users, repos.videos, repos.subscriptions, repos.likes),
		Health:         health,
		Limiter:        middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, 10*time.Minute),
		Cookies:        handlers.CookieConfig{Secure: cfg.CookieSecure},
		MaxUploadBytes: cfg.MaxUploadBytes,

		TrustForwardedFor: cfg.RateLimit.TrustForwardedFor,
	}

	return deps, reaper.Shutdown, nil
}

// newHandler builds the routed and instrumented root handler.
func newHandler(cfg config.Config, deps handlers.Dependencies, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	return middleware.Chain(mux,
		middleware.RequestLogger(logger),
		middleware.Timeout(cfg.RequestTimeout),
	)
}
