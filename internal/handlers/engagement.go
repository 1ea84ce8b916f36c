package handlers

import "net/http"

// EngagementHandler exposes subscription and like toggles.
type EngagementHandler struct {
	Engagement EngagementService
}

// ToggleSubscription implements POST /api/v1/subscriptions/c/{channelId}.
func (h EngagementHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	subscribed, err := h.Engagement.ToggleSubscription(r.Context(), UserIDFromContext(r.Context()), r.PathValue("channelId"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	respondData(r.Context(), w, http.StatusOK, map[string]bool{"subscribed": subscribed}, message)
}

// ToggleLike implements POST /api/v1/likes/v/{videoId}.
func (h EngagementHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	liked, err := h.Engagement.ToggleLike(r.Context(), UserIDFromContext(r.Context()), r.PathValue("videoId"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	message := "Like removed"
	if liked {
		message = "Video liked"
	}
	respondData(r.Context(), w, http.StatusOK, map[string]bool{"liked": liked}, message)
}
