package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    time.Hour,
		Issuer:        "vidtube-test",
	})
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}

func TestNewTokenServiceRequiresDistinctSecrets(t *testing.T) {
	if _, err := NewTokenService(TokenConfig{AccessSecret: "a"}); err == nil {
		t.Fatal("expected error for missing refresh secret")
	}
	if _, err := NewTokenService(TokenConfig{AccessSecret: "same", RefreshSecret: "same"}); err == nil {
		t.Fatal("expected error for identical secrets")
	}
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	access, accessExp, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	refresh, refreshExp, err := svc.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if !refreshExp.After(accessExp) {
		t.Fatalf("expected refresh to outlive access: %v vs %v", refreshExp, accessExp)
	}

	if id, err := svc.Verify(access, KindAccess); err != nil || id != "user-1" {
		t.Fatalf("verify access: %q %v", id, err)
	}
	if id, err := svc.Verify(refresh, KindRefresh); err != nil || id != "user-1" {
		t.Fatalf("verify refresh: %q %v", id, err)
	}
}

func TestTokenServiceRejectsWrongKind(t *testing.T) {
	svc := newTestTokenService(t)

	access, _, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(access, KindRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for access used as refresh, got %v", err)
	}
}

func TestTokenServiceDetectsExpiry(t *testing.T) {
	svc := newTestTokenService(t)
	issuedAt := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	svc.WithNowFunc(func() time.Time { return issuedAt })

	token, _, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.WithNowFunc(func() time.Time { return issuedAt.Add(2 * time.Minute) })
	if _, err := svc.Verify(token, KindAccess); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestTokenServiceRejectsForeignSignatures(t *testing.T) {
	svc := newTestTokenService(t)

	claims := tokenClaims{
		Kind: KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("someone-else"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Verify(forged, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := svc.Verify(unsigned, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for alg none, got %v", err)
	}

	if _, err := svc.Verify("not-a-jwt", KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for garbage, got %v", err)
	}
}

func TestTokenServiceMintsDistinctTokensWithinOneSecond(t *testing.T) {
	svc := newTestTokenService(t)
	fixed := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	svc.WithNowFunc(func() time.Time { return fixed })

	first, _, err := svc.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, _, err := svc.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct refresh tokens")
	}
}
