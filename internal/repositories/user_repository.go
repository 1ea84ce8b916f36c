package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for users and their credentials.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// FindByLogin matches the identifier against both username and email.
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	SetAvatar(ctx context.Context, id, location string) error
	SetCoverImage(ctx context.Context, id, location string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// SetRefreshToken overwrites the stored refresh token; an empty token clears it.
	SetRefreshToken(ctx context.Context, id, token string) error
	// SwapRefreshToken replaces current with next only if current is still stored.
	SwapRefreshToken(ctx context.Context, id, current, next string) error
}
