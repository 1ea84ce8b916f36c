package handlers

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/catalog"
	"github.com/vidtube/backend/internal/views"
)

// VideoHandler exposes the video catalog and feed endpoints.
type VideoHandler struct {
	Catalog        CatalogService
	Views          ViewService
	MaxUploadBytes int64
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// List implements GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := feedQueryFromRequest(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	page, err := h.Views.VideoFeed(r.Context(), query)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if page.Videos == nil {
		page.Videos = []views.VideoSummary{}
	}
	respondData(r.Context(), w, http.StatusOK, page, "Videos fetched successfully")
}

func feedQueryFromRequest(r *http.Request) (views.FeedQuery, error) {
	values := r.URL.Query()

	page, err := intParam(values.Get("page"), 1, "page")
	if err != nil {
		return views.FeedQuery{}, err
	}
	limit, err := intParam(values.Get("limit"), views.DefaultPageSize, "limit")
	if err != nil {
		return views.FeedQuery{}, err
	}

	return views.FeedQuery{
		Text:     values.Get("query"),
		OwnerID:  values.Get("userId"),
		SortBy:   values.Get("sortBy"),
		SortType: values.Get("sortType"),
		Page:     page,
		Limit:    limit,
	}, nil
}

func intParam(raw string, fallback int, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ValidationCause(name+" must be a positive integer", err)
	}
	return n, nil
}

// Upload implements POST /api/v1/videos.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	form, err := parseMultipart(w, r, h.MaxUploadBytes)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	defer form.Close()

	video, err := form.file("videoFile")
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	thumbnail, err := form.file("thumbnail")
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	created, err := h.Catalog.Upload(r.Context(), UserIDFromContext(r.Context()), catalog.UploadInput{
		Title:       form.value("title"),
		Description: form.value("description"),
		Video:       video,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(r.Context(), w, http.StatusCreated, created, "Video uploaded successfully")
}

// Get implements GET /api/v1/videos/{videoId}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Views.VideoDetail(r.Context(), UserIDFromContext(r.Context()), r.PathValue("videoId"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(r.Context(), w, http.StatusOK, detail, "Video fetched successfully")
}

// Update implements PATCH /api/v1/videos/{videoId}. It accepts multipart bodies,
// which may carry a replacement thumbnail, and plain JSON bodies.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in catalog.UpdateInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		form, err := parseMultipart(w, r, h.MaxUploadBytes)
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		defer form.Close()

		thumbnail, err := form.file("thumbnail")
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		in = catalog.UpdateInput{
			Title:       form.optionalValue("title"),
			Description: form.optionalValue("description"),
			Thumbnail:   thumbnail,
		}
	} else {
		var req updateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(r.Context(), w, err)
			return
		}
		in = catalog.UpdateInput{Title: req.Title, Description: req.Description}
	}

	updated, err := h.Catalog.Update(r.Context(), UserIDFromContext(r.Context()), r.PathValue("videoId"), in)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(r.Context(), w, http.StatusOK, updated, "Video updated successfully")
}

// Delete implements DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), UserIDFromContext(r.Context()), r.PathValue("videoId")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(r.Context(), w, http.StatusOK, struct{}{}, "Video deleted successfully")
}

// TogglePublish implements PATCH /api/v1/videos/{videoId}/publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	video, err := h.Catalog.TogglePublish(r.Context(), UserIDFromContext(r.Context()), r.PathValue("videoId"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(r.Context(), w, http.StatusOK, video, "Publish status toggled successfully")
}
