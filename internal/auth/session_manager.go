package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

var (
	// ErrInvalidCredentials indicates the supplied password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshTokenReused indicates a well-formed refresh token that is no longer the stored one.
	ErrRefreshTokenReused = errors.New("refresh token reused")
	// ErrInvalidOldPassword indicates a password change with the wrong current password.
	ErrInvalidOldPassword = errors.New("invalid old password")
)

const refreshRejected = "invalid or expired refresh token"

// CredentialStore is the slice of the user repository the session lifecycle depends on.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	SwapRefreshToken(ctx context.Context, id, current, next string) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

// Manager owns the session lifecycle: login, rotation, logout and password changes.
// A user holds at most one valid refresh token at a time.
type Manager struct {
	tokens *TokenService
	users  CredentialStore
	hasher PasswordHasher
}

// NewManager constructs a Manager backed by the provided token service and credential store.
func NewManager(tokens *TokenService, users CredentialStore, hasher PasswordHasher) *Manager {
	if tokens == nil {
		panic("auth: token service must not be nil")
	}
	if users == nil {
		panic("auth: credential store must not be nil")
	}
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Manager{tokens: tokens, users: users, hasher: hasher}
}

// Login verifies the credentials and issues a fresh token pair, replacing any
// previously stored refresh token.
func (m *Manager) Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return models.User{}, models.SessionTokens{}, apperr.Validation("username or email and password are required")
	}

	user, err := m.users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.SessionTokens{}, apperr.NotFound("user does not exist")
		}
		return models.User{}, models.SessionTokens{}, apperr.Unavailable("failed to load user", err)
	}

	if !m.hasher.Matches(user.Password, password) {
		return models.User{}, models.SessionTokens{}, apperr.Unauthorized("invalid user credentials", ErrInvalidCredentials)
	}

	tokens, err := m.issue(user.ID)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.User{}, models.SessionTokens{}, apperr.Unavailable("failed to persist session", err)
	}

	logging.FromContext(ctx).Info("user logged in", slog.String("user_id", user.ID))
	user.RefreshToken = ""
	return user, tokens, nil
}

// Refresh exchanges the presented refresh token for a new pair. The stored token is
// swapped only if it still equals the presented one, so concurrent refreshes with the
// same token cannot both succeed.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.SessionTokens, error) {
	ctx, span := logging.StartSpan(ctx, "auth.refresh")
	defer span.End()
	logger := logging.FromContext(ctx)

	reject := func(cause error) (models.SessionTokens, error) {
		span.RecordError(cause)
		return models.SessionTokens{}, apperr.Unauthorized(refreshRejected, cause)
	}

	if presented == "" {
		return reject(ErrInvalidToken)
	}

	userID, err := m.tokens.Verify(presented, KindRefresh)
	if err != nil {
		return reject(err)
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return reject(fmt.Errorf("%w: unknown subject", ErrInvalidToken))
		}
		return models.SessionTokens{}, apperr.Unavailable("failed to load user", err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		return reject(ErrRefreshTokenReused)
	}

	tokens, err := m.issue(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.SwapRefreshToken(ctx, userID, presented, tokens.RefreshToken); err != nil {
		switch {
		case errors.Is(err, repositories.ErrStaleToken), errors.Is(err, repositories.ErrNotFound):
			return reject(ErrRefreshTokenReused)
		default:
			return models.SessionTokens{}, apperr.Unavailable("failed to rotate session", err)
		}
	}

	logger.Info("session rotated", slog.String("user_id", userID))
	return tokens, nil
}

// Logout revokes the user's stored refresh token.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if err := m.users.SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("user does not exist")
		}
		return apperr.Unavailable("failed to revoke session", err)
	}
	return nil
}

// ChangePassword replaces the user's password hash after checking the current password.
// Existing sessions stay valid.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("old and new password are required")
	}
	if len(newPassword) < MinPasswordLength {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("user does not exist")
		}
		return apperr.Unavailable("failed to load user", err)
	}

	if !m.hasher.Matches(user.Password, oldPassword) {
		return apperr.ValidationCause("invalid old password", ErrInvalidOldPassword)
	}

	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return apperr.ValidationCause("password could not be hashed", err)
	}

	if err := m.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperr.Unavailable("failed to update password", err)
	}
	return nil
}

// Authenticate verifies an access token and returns its subject.
func (m *Manager) Authenticate(accessToken string) (string, error) {
	if accessToken == "" {
		return "", apperr.Unauthorized("unauthorized request", ErrInvalidToken)
	}

	userID, err := m.tokens.Verify(accessToken, KindAccess)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return "", apperr.Unauthorized("access token expired", err)
		}
		return "", apperr.Unauthorized("invalid access token", err)
	}
	return userID, nil
}

func (m *Manager) issue(userID string) (models.SessionTokens, error) {
	access, accessExp, err := m.tokens.IssueAccessToken(userID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := m.tokens.IssueRefreshToken(userID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
