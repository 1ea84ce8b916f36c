package models

import "time"

// User represents a channel account within the vidtube platform.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Password     string    `json:"-"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Video stores an uploaded video and its blob locations.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	OwnerID     string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnedBy reports the identifier of the user allowed to mutate the video.
func (v Video) OwnedBy() string {
	return v.OwnerID
}

// Subscription is the edge between a subscriber and the channel they follow.
type Subscription struct {
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Like records a user liking a video.
type Like struct {
	VideoID   string    `json:"video"`
	LikedBy   string    `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Sort fields accepted by the video feed.
const (
	SortByCreatedAt = "createdAt"
	SortByViews     = "views"
	SortByDuration  = "duration"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// VideoQuery selects a page of published videos.
type VideoQuery struct {
	Text    string
	OwnerID string
	SortBy  string
	SortAsc bool
	Offset  int
	Limit   int
}

// Sanitized returns a copy of u without credential material.
func (u User) Sanitized() User {
	u.Password = ""
	u.RefreshToken = ""
	return u
}
