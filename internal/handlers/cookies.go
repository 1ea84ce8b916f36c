package handlers

import (
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/models"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// CookieConfig controls the attributes of the session cookies.
type CookieConfig struct {
	// Secure should only be disabled for plain-HTTP local development.
	Secure bool
}

func (c CookieConfig) setSession(w http.ResponseWriter, tokens models.SessionTokens, now time.Time) {
	http.SetCookie(w, c.cookie(accessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt, now))
	http.SetCookie(w, c.cookie(refreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt, now))
}

func (c CookieConfig) clearSession(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		cookie := c.cookie(name, "", time.Unix(0, 0), time.Now())
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func (c CookieConfig) cookie(name, value string, expires, now time.Time) *http.Cookie {
	maxAge := int(expires.Sub(now).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
