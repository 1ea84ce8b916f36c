package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/logging"
)

type userIDKey struct{}

// Authenticator resolves an access token to a user id.
type Authenticator interface {
	Authenticate(accessToken string) (string, error)
}

// RequireAuth rejects requests without a valid access token.
func RequireAuth(a Authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticate(a, accessTokens(r))
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		next(w, r.WithContext(withUserID(r.Context(), userID)))
	}
}

// OptionalAuth resolves the caller when a valid access token is present and
// otherwise serves the request anonymously.
func OptionalAuth(a Authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokens := accessTokens(r)
		if len(tokens) == 0 {
			next(w, r)
			return
		}
		userID, err := authenticate(a, tokens)
		if err != nil {
			logging.FromContext(r.Context()).Debug("ignoring invalid access token on public route", "error", err)
			next(w, r)
			return
		}
		next(w, r.WithContext(withUserID(r.Context(), userID)))
	}
}

// UserIDFromContext returns the authenticated user id, or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey{}).(string)
	return userID
}

func withUserID(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey{}, userID)
	return logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", userID))
}

// accessTokens lists the presented access tokens, bearer header before cookie.
func accessTokens(r *http.Request) []string {
	var tokens []string
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		if token := strings.TrimSpace(header[7:]); token != "" {
			tokens = append(tokens, token)
		}
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}
	return tokens
}

// authenticate returns the user for the first valid token. When none is valid
// the error for the first token is reported.
func authenticate(a Authenticator, tokens []string) (string, error) {
	var firstErr error
	for _, token := range tokens {
		userID, err := a.Authenticate(token)
		if err == nil {
			return userID, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		return a.Authenticate("")
	}
	return "", firstErr
}
