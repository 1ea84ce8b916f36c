package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/views"
)

// UserHandler exposes registration, session and profile endpoints.
type UserHandler struct {
	Accounts       AccountService
	Sessions       SessionService
	Views          ViewService
	Cookies        CookieConfig
	Limiter        RateLimiter
	Keyer          clientKeyer
	MaxUploadBytes int64
	Now            func() time.Time
}

type imageUpdater func(ctx context.Context, userID string, upload *storage.Upload) (models.User, error)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User models.User `json:"user"`
	models.SessionTokens
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Register implements POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.Keyer.allow(h.Limiter, r, "register") {
		rejectRateLimited(w, r)
		return
	}

	form, err := parseMultipart(w, r, h.MaxUploadBytes)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	defer form.Close()

	avatar, err := form.file("avatar")
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	cover, err := form.file("coverImage")
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	user, err := h.Accounts.Register(r.Context(), accounts.RegisterInput{
		Username:   form.value("username"),
		Email:      form.value("email"),
		FullName:   form.value("fullName"),
		Password:   form.value("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondData(r.Context(), w, http.StatusCreated, user, "User registered successfully")
}

// Login implements POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.Keyer.allow(h.Limiter, r, "login") {
		rejectRateLimited(w, r)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}

	user, tokens, err := h.Sessions.Login(r.Context(), identifier, req.Password)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	h.Cookies.setSession(w, tokens, h.now())
	respondData(r.Context(), w, http.StatusOK, loginResponse{User: user, SessionTokens: tokens}, "User logged in successfully")
}

// Logout implements POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context(), UserIDFromContext(r.Context())); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	h.Cookies.clearSession(w)
	respondData(r.Context(), w, http.StatusOK, struct{}{}, "User logged out")
}

// RefreshToken implements POST /api/v1/users/refresh-token. The refresh token is
// read from its cookie first and from the JSON body otherwise.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if !h.Keyer.allow(h.Limiter, r, "refresh") {
		rejectRateLimited(w, r)
		return
	}

	// A token in the body is an explicit choice and wins over the cookie.
	presented := ""
	if r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(r.Context(), w, err)
			return
		}
		presented = strings.TrimSpace(req.RefreshToken)
	}
	if presented == "" {
		if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
			presented = cookie.Value
		}
	}
	if presented == "" {
		respondError(r.Context(), w, apperr.Unauthorized("unauthorized request", nil))
		return
	}

	tokens, err := h.Sessions.Refresh(r.Context(), presented)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	h.Cookies.setSession(w, tokens, h.now())
	respondData(r.Context(), w, http.StatusOK, tokens, "Access token refreshed")
}

// ChangePassword implements POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	if err := h.Sessions.ChangePassword(r.Context(), UserIDFromContext(r.Context()), req.OldPassword, req.NewPassword); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondData(r.Context(), w, http.StatusOK, struct{}{}, "Password changed successfully")
}

// CurrentUser implements GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Accounts.CurrentUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(r.Context(), w, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount implements PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	user, err := h.Accounts.UpdateAccountDetails(r.Context(), UserIDFromContext(r.Context()), req.FullName, req.Email)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(r.Context(), w, http.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar implements PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", h.Accounts.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage implements PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", h.Accounts.UpdateCoverImage, "Cover image updated successfully")
}

func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, update imageUpdater, message string) {
	form, err := parseMultipart(w, r, h.MaxUploadBytes)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	defer form.Close()

	upload, err := form.file(field)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	user, err := update(r.Context(), UserIDFromContext(r.Context()), upload)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(r.Context(), w, http.StatusOK, user, message)
}

// ChannelProfile implements GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Views.ChannelProfile(r.Context(), UserIDFromContext(r.Context()), r.PathValue("username"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(r.Context(), w, http.StatusOK, profile, "User channel fetched successfully")
}

// WatchHistory implements GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.Views.WatchHistory(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if history == nil {
		history = []views.VideoSummary{}
	}
	respondData(r.Context(), w, http.StatusOK, history, "Watch history fetched successfully")
}

func (h UserHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
