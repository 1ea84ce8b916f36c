// Package accounts implements registration and profile maintenance for channel owners.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// UserStore is the slice of the user repository used by account maintenance.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	SetAvatar(ctx context.Context, id, location string) error
	SetCoverImage(ctx context.Context, id, location string) error
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     *storage.Upload
	CoverImage *storage.Upload
}

// Service registers users and maintains their profile fields and images.
type Service struct {
	users  UserStore
	blobs  storage.BlobStore
	reaper storage.Reaper
	hasher auth.PasswordHasher
	now    func() time.Time
}

// NewService constructs an accounts Service.
func NewService(users UserStore, blobs storage.BlobStore, reaper storage.Reaper, hasher auth.PasswordHasher) *Service {
	if users == nil || blobs == nil || reaper == nil {
		panic("accounts: users, blobs and reaper must be provided")
	}
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}
	return &Service{users: users, blobs: blobs, reaper: reaper, hasher: hasher, now: time.Now}
}

// Register validates the request, uploads the profile images and creates the user.
// Duplicate usernames or emails are rejected before anything is uploaded.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	fullName := strings.TrimSpace(in.FullName)
	email, err := normalizeEmail(in.Email)
	if username == "" || fullName == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return models.User{}, apperr.Validation("all fields are required")
	}
	if err != nil {
		return models.User{}, err
	}
	if len(in.Password) < auth.MinPasswordLength {
		return models.User{}, apperr.Validation(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	if in.Avatar == nil || in.Avatar.Body == nil {
		return models.User{}, apperr.Validation("avatar file is required")
	}

	exists, err := s.users.Exists(ctx, username, email)
	if err != nil {
		return models.User{}, apperr.Unavailable("failed to check existing users", err)
	}
	if exists {
		return models.User{}, apperr.Conflict("user with email or username already exists")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, apperr.ValidationCause("password could not be hashed", err)
	}

	avatar, err := s.blobs.Save(ctx, storage.ObjectKey("avatars", in.Avatar.Filename), in.Avatar.Body)
	if err != nil {
		return models.User{}, apperr.Unavailable("failed to upload avatar", err)
	}
	uploaded := []string{avatar}

	var cover string
	if in.CoverImage != nil && in.CoverImage.Body != nil {
		cover, err = s.blobs.Save(ctx, storage.ObjectKey("covers", in.CoverImage.Filename), in.CoverImage.Body)
		if err != nil {
			s.discard(ctx, uploaded...)
			return models.User{}, apperr.Unavailable("failed to upload cover image", err)
		}
		uploaded = append(uploaded, cover)
	}

	now := s.now().UTC()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Password:   hash,
		Avatar:     avatar,
		CoverImage: cover,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.discard(ctx, uploaded...)
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("user with email or username already exists")
		}
		return models.User{}, apperr.Unavailable("failed to register user", err)
	}

	logging.FromContext(ctx).Info("user registered", slog.String("user_id", user.ID))
	return user.Sanitized(), nil
}

// CurrentUser returns the authenticated user's record.
func (s *Service) CurrentUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, translate(err)
	}
	return user.Sanitized(), nil
}

// UpdateAccountDetails replaces the full name and email of the user.
func (s *Service) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (models.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" || strings.TrimSpace(email) == "" {
		return models.User{}, apperr.Validation("full name and email are required")
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.UpdateDetails(ctx, userID, fullName, normalized)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("email is already in use")
		}
		return models.User{}, translate(err)
	}
	return user.Sanitized(), nil
}

// UpdateAvatar uploads a new avatar and schedules removal of the previous one.
func (s *Service) UpdateAvatar(ctx context.Context, userID string, upload *storage.Upload) (models.User, error) {
	return s.replaceImage(ctx, userID, upload, imageSlot{
		name:   "avatar",
		prefix: "avatars",
		get:    func(u models.User) string { return u.Avatar },
		set:    s.users.SetAvatar,
	})
}

// UpdateCoverImage uploads a new cover image and schedules removal of the previous one.
func (s *Service) UpdateCoverImage(ctx context.Context, userID string, upload *storage.Upload) (models.User, error) {
	return s.replaceImage(ctx, userID, upload, imageSlot{
		name:   "cover image",
		prefix: "covers",
		get:    func(u models.User) string { return u.CoverImage },
		set:    s.users.SetCoverImage,
	})
}

type imageSlot struct {
	name   string
	prefix string
	get    func(models.User) string
	set    func(ctx context.Context, id, location string) error
}

func (s *Service) replaceImage(ctx context.Context, userID string, upload *storage.Upload, slot imageSlot) (models.User, error) {
	if upload == nil || upload.Body == nil {
		return models.User{}, apperr.Validation(slot.name + " file is missing")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, translate(err)
	}

	location, err := s.blobs.Save(ctx, storage.ObjectKey(slot.prefix, upload.Filename), upload.Body)
	if err != nil {
		return models.User{}, apperr.Unavailable("failed to upload "+slot.name, err)
	}

	if err := slot.set(ctx, userID, location); err != nil {
		s.discard(ctx, location)
		return models.User{}, translate(err)
	}

	s.discard(ctx, slot.get(user))

	updated, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, translate(err)
	}
	return updated.Sanitized(), nil
}

// discard hands blobs to the reaper. A failure leaves an orphaned blob, which is logged.
func (s *Service) discard(ctx context.Context, locations ...string) {
	if err := s.reaper.Enqueue(context.WithoutCancel(ctx), locations...); err != nil {
		logging.FromContext(ctx).Warn("failed to schedule blob removal",
			slog.Any("locations", locations),
			slog.Any("error", err),
		)
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("email address is invalid")
	}
	return email, nil
}

func translate(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("user does not exist")
	}
	return apperr.Unavailable("failed to access user record", err)
}
