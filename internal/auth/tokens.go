package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

var (
	// ErrInvalidToken indicates a malformed token, a bad signature or the wrong token kind.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a correctly signed token past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// TokenConfig configures signing secrets and lifetimes for both token kinds.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

type tokenClaims struct {
	Kind TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies HS256 access and refresh tokens. Verification is
// stateless; refresh tokens additionally need the persisted check in Manager.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenService validates cfg and returns a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: access and refresh token secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh token secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 10 * 24 * time.Hour
	}
	return &TokenService{cfg: cfg, now: time.Now}, nil
}

// WithNowFunc allows tests to override the time source.
func (s *TokenService) WithNowFunc(now func() time.Time) {
	s.now = now
}

// IssueAccessToken signs a short-lived access token for userID.
func (s *TokenService) IssueAccessToken(userID string) (string, time.Time, error) {
	return s.issue(KindAccess, userID)
}

// IssueRefreshToken signs a long-lived refresh token for userID.
func (s *TokenService) IssueRefreshToken(userID string) (string, time.Time, error) {
	return s.issue(KindRefresh, userID)
}

func (s *TokenService) issue(kind TokenKind, userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	secret, ttl := s.settings(kind)
	now := s.now().UTC()
	expiresAt := now.Add(ttl)

	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.cfg.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return signed, expiresAt, nil
}

// Verify checks signature, expiry and kind, returning the token subject.
func (s *TokenService) Verify(token string, kind TokenKind) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	secret, _ := s.settings(kind)
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.Kind != kind || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

func (s *TokenService) settings(kind TokenKind) ([]byte, time.Duration) {
	if kind == KindRefresh {
		return []byte(s.cfg.RefreshSecret), s.cfg.RefreshTTL
	}
	return []byte(s.cfg.AccessSecret), s.cfg.AccessTTL
}
