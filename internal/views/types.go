package views

import "time"

// Page size bounds applied to the video feed.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// OwnerSummary is the trimmed projection of a channel attached to each video row.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// VideoSummary is a feed or history row.
type VideoSummary struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	VideoFile   string       `json:"videoFile"`
	Thumbnail   string       `json:"thumbnail"`
	Duration    float64      `json:"duration"`
	Views       int64        `json:"views"`
	CreatedAt   time.Time    `json:"createdAt"`
	Owner       OwnerSummary `json:"owner"`
}

// FeedQuery carries the raw feed filters as supplied by the caller.
type FeedQuery struct {
	Text     string
	OwnerID  string
	SortBy   string
	SortType string
	Page     int
	Limit    int
}

// Page is one page of the published video feed.
type Page struct {
	Videos      []VideoSummary `json:"videos"`
	TotalVideos int            `json:"totalVideos"`
	Page        int            `json:"page"`
	Limit       int            `json:"limit"`
	TotalPages  int            `json:"totalPages"`
	HasNextPage bool           `json:"hasNextPage"`
	HasPrevPage bool           `json:"hasPrevPage"`
}

// ChannelProfile is the public view of a channel with its subscription counts.
type ChannelProfile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullName"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int    `json:"subscribersCount"`
	ChannelsSubscribedToCount int    `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// DetailOwner extends the owner projection with the viewer's relationship to it.
type DetailOwner struct {
	OwnerSummary
	SubscribersCount int  `json:"subscribersCount"`
	IsSubscribed     bool `json:"isSubscribed"`
}

// VideoDetail is the single-video view returned to a watcher.
type VideoDetail struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	VideoFile   string      `json:"videoFile"`
	Thumbnail   string      `json:"thumbnail"`
	Duration    float64     `json:"duration"`
	Views       int64       `json:"views"`
	IsPublished bool        `json:"isPublished"`
	CreatedAt   time.Time   `json:"createdAt"`
	LikesCount  int         `json:"likesCount"`
	IsLiked     bool        `json:"isLiked"`
	Owner       DetailOwner `json:"owner"`
}
