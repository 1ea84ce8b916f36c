package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

var testHasher = BcryptHasher{Cost: bcrypt.MinCost}

func newTestManager(t *testing.T) (*Manager, *repositories.MemoryStore) {
	t.Helper()
	store := repositories.NewMemoryStore()

	hash, err := testHasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := store.Users.Create(context.Background(), models.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice",
		Password: hash,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return NewManager(newTestTokenService(t), store.Users, testHasher), store
}

func TestManagerLoginIssuesAndPersistsRefreshToken(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	user, tokens, err := manager.Login(ctx, "  ALICE ", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "user-1" || user.RefreshToken != "" {
		t.Fatalf("unexpected user returned: %+v", user)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	stored, _ := store.Users.FindByID(ctx, "user-1")
	if stored.RefreshToken != tokens.RefreshToken {
		t.Fatal("expected refresh token to be persisted")
	}

	if _, _, err := manager.Login(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestManagerLoginFailures(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	if _, _, err := manager.Login(ctx, "", "x"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := manager.Login(ctx, "nobody", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, _, err := manager.Login(ctx, "alice", "wrong")
	if !errors.Is(err, apperr.ErrUnauthorized) || !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	stored, _ := store.Users.FindByID(ctx, "user-1")
	if stored.RefreshToken != "" {
		t.Fatal("failed login must not persist a refresh token")
	}
}

func TestManagerRefreshRotatesAndRejectsReuse(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, first, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := manager.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	_, err = manager.Refresh(ctx, first.RefreshToken)
	if !errors.Is(err, apperr.ErrUnauthorized) || !errors.Is(err, ErrRefreshTokenReused) {
		t.Fatalf("expected reused refresh token to be rejected, got %v", err)
	}

	if _, err := manager.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("expected rotated token to refresh once more: %v", err)
	}
}

func TestManagerSecondLoginInvalidatesFirstRefreshToken(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, first, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := manager.Login(ctx, "alice", "correct-horse"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, err := manager.Refresh(ctx, first.RefreshToken); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected first session to be revoked, got %v", err)
	}
}

func TestManagerRefreshFailuresShareOneMessage(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, tokens, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	for name, presented := range map[string]string{
		"empty":        "",
		"garbage":      "garbage",
		"access token": tokens.AccessToken,
	} {
		_, err := manager.Refresh(ctx, presented)
		if !errors.Is(err, apperr.ErrUnauthorized) {
			t.Fatalf("%s: expected unauthorized, got %v", name, err)
		}
		if apperr.Message(err) != refreshRejected {
			t.Fatalf("%s: unexpected message %q", name, apperr.Message(err))
		}
	}
}

func TestManagerConcurrentRefreshHasOneWinner(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, tokens, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.Refresh(ctx, tokens.RefreshToken); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful refresh, got %d", successes)
	}
}

func TestManagerLogoutRevokesRefreshToken(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, tokens, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := manager.Logout(ctx, "user-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := manager.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected refresh after logout to fail, got %v", err)
	}
	if err := manager.Logout(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}

func TestManagerChangePassword(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, tokens, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	err = manager.ChangePassword(ctx, "user-1", "wrong", "battery-staple")
	if !errors.Is(err, apperr.ErrValidation) || !errors.Is(err, ErrInvalidOldPassword) {
		t.Fatalf("expected invalid old password, got %v", err)
	}
	if err := manager.ChangePassword(ctx, "user-1", "correct-horse", "short"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
	if err := manager.ChangePassword(ctx, "user-1", "correct-horse", "battery-staple"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, _, err := manager.Login(ctx, "alice", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
	if _, err := manager.Refresh(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("expected existing session to survive a password change: %v", err)
	}
}

func TestManagerAuthenticate(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, tokens, err := manager.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	userID, err := manager.Authenticate(tokens.AccessToken)
	if err != nil || userID != "user-1" {
		t.Fatalf("authenticate: %q %v", userID, err)
	}
	if _, err := manager.Authenticate(tokens.RefreshToken); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected refresh token to be rejected as access token, got %v", err)
	}
	if _, err := manager.Authenticate(""); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for empty token, got %v", err)
	}
}
