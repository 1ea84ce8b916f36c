package handlers

import "net/http"

const apiPrefix = "/api/v1"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.Health}
	users := UserHandler{
		Accounts:       deps.Accounts,
		Sessions:       deps.Sessions,
		Views:          deps.Views,
		Cookies:        deps.Cookies,
		Limiter:        deps.Limiter,
		Keyer:          clientKeyer{trustForwardedFor: deps.TrustForwardedFor},
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	videos := VideoHandler{Catalog: deps.Catalog, Views: deps.Views, MaxUploadBytes: deps.MaxUploadBytes}
	engagement := EngagementHandler{Engagement: deps.Engagement}

	authed := func(h http.HandlerFunc) http.HandlerFunc { return RequireAuth(deps.Sessions, h) }
	optional := func(h http.HandlerFunc) http.HandlerFunc { return OptionalAuth(deps.Sessions, h) }

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST "+apiPrefix+"/users/register", users.Register)
	mux.HandleFunc("POST "+apiPrefix+"/users/login", users.Login)
	mux.HandleFunc("POST "+apiPrefix+"/users/refresh-token", users.RefreshToken)
	mux.HandleFunc("POST "+apiPrefix+"/users/logout", authed(users.Logout))
	mux.HandleFunc("POST "+apiPrefix+"/users/change-password", authed(users.ChangePassword))
	mux.HandleFunc("GET "+apiPrefix+"/users/current-user", authed(users.CurrentUser))
	mux.HandleFunc("PATCH "+apiPrefix+"/users/update-account", authed(users.UpdateAccount))
	mux.HandleFunc("PATCH "+apiPrefix+"/users/avatar", authed(users.UpdateAvatar))
	mux.HandleFunc("PATCH "+apiPrefix+"/users/cover-image", authed(users.UpdateCoverImage))
	mux.HandleFunc("GET "+apiPrefix+"/users/c/{username}", optional(users.ChannelProfile))
	mux.HandleFunc("GET "+apiPrefix+"/users/history", authed(users.WatchHistory))

	mux.HandleFunc("GET "+apiPrefix+"/videos", videos.List)
	mux.HandleFunc("POST "+apiPrefix+"/videos", authed(videos.Upload))
	mux.HandleFunc("GET "+apiPrefix+"/videos/{videoId}", optional(videos.Get))
	mux.HandleFunc("PATCH "+apiPrefix+"/videos/{videoId}", authed(videos.Update))
	mux.HandleFunc("DELETE "+apiPrefix+"/videos/{videoId}", authed(videos.Delete))
	mux.HandleFunc("PATCH "+apiPrefix+"/videos/{videoId}/publish", authed(videos.TogglePublish))

	mux.HandleFunc("POST "+apiPrefix+"/subscriptions/c/{channelId}", authed(engagement.ToggleSubscription))
	mux.HandleFunc("POST "+apiPrefix+"/likes/v/{videoId}", authed(engagement.ToggleLike))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions       SessionService
	Accounts       AccountService
	Views          ViewService
	Catalog        CatalogService
	Engagement     EngagementService
	Health         Pinger
	Limiter        RateLimiter
	Cookies        CookieConfig
	MaxUploadBytes int64

	TrustForwardedFor bool
}
