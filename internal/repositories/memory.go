package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/models"
)

type historyEntry struct {
	videoID   string
	watchedAt time.Time
	seq       uint64
}

type memoryState struct {
	mu            sync.RWMutex
	users         map[string]models.User
	videos        map[string]models.Video
	subscriptions map[[2]string]models.Subscription
	likes         map[[2]string]models.Like
	history       map[string][]historyEntry
	seq           uint64
}

// MemoryStore bundles in-memory repositories sharing one state so cascades behave like
// the PostgreSQL schema. Intended for tests and local development.
type MemoryStore struct {
	Users         *MemoryUserRepository
	Videos        *MemoryVideoRepository
	Subscriptions *MemorySubscriptionRepository
	Likes         *MemoryLikeRepository
	History       *MemoryHistoryRepository
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	state := &memoryState{
		users:         make(map[string]models.User),
		videos:        make(map[string]models.Video),
		subscriptions: make(map[[2]string]models.Subscription),
		likes:         make(map[[2]string]models.Like),
		history:       make(map[string][]historyEntry),
	}
	return &MemoryStore{
		Users:         &MemoryUserRepository{state: state},
		Videos:        &MemoryVideoRepository{state: state},
		Subscriptions: &MemorySubscriptionRepository{state: state},
		Likes:         &MemoryLikeRepository{state: state},
		History:       &MemoryHistoryRepository{state: state},
	}
}

// MemoryUserRepository implements UserRepository in memory.
type MemoryUserRepository struct {
	state *memoryState
}

// Create inserts a user, rejecting duplicate ids, usernames and emails.
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

// FindByID returns the user with the given id.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// FindByIDs returns the known users among ids, keyed by id.
func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

// FindByUsername looks a user up by username.
func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

// FindByLogin matches the identifier against username or email.
func (r *MemoryUserRepository) FindByLogin(_ context.Context, identifier string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == identifier || u.Email == identifier })
}

func (r *MemoryUserRepository) find(match func(models.User) bool) (models.User, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// Exists reports whether the username or email is taken.
func (r *MemoryUserRepository) Exists(_ context.Context, username, email string) (bool, error) {
	_, err := r.find(func(u models.User) bool { return u.Username == username || u.Email == email })
	return err == nil, nil
}

// UpdateDetails sets the full name and email and returns the updated user.
func (r *MemoryUserRepository) UpdateDetails(_ context.Context, id, fullName, email string) (models.User, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && other.Email == email {
			return models.User{}, ErrConflict
		}
	}
	user.FullName = fullName
	user.Email = email
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return user, nil
}

// SetAvatar stores the avatar location.
func (r *MemoryUserRepository) SetAvatar(_ context.Context, id, location string) error {
	return r.mutate(id, func(u *models.User) { u.Avatar = location })
}

// SetCoverImage stores the cover image location.
func (r *MemoryUserRepository) SetCoverImage(_ context.Context, id, location string) error {
	return r.mutate(id, func(u *models.User) { u.CoverImage = location })
}

// UpdatePassword replaces the password hash.
func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.mutate(id, func(u *models.User) { u.Password = passwordHash })
}

// SetRefreshToken overwrites the stored refresh token.
func (r *MemoryUserRepository) SetRefreshToken(_ context.Context, id, token string) error {
	return r.mutate(id, func(u *models.User) { u.RefreshToken = token })
}

// SwapRefreshToken replaces current with next if current is still stored.
func (r *MemoryUserRepository) SwapRefreshToken(_ context.Context, id, current, next string) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok || current == "" || user.RefreshToken != current {
		return ErrStaleToken
	}
	user.RefreshToken = next
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return nil
}

func (r *MemoryUserRepository) mutate(id string, fn func(*models.User)) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return nil
}

// MemoryVideoRepository implements VideoRepository in memory.
type MemoryVideoRepository struct {
	state *memoryState
}

// Create inserts a video owned by an existing user.
func (r *MemoryVideoRepository) Create(_ context.Context, video models.Video) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[video.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.users[video.OwnerID]; !ok {
		return ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

// FindByID returns the video with the given id.
func (r *MemoryVideoRepository) FindByID(_ context.Context, id string) (models.Video, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

// FindByIDs returns the known videos among ids, keyed by id.
func (r *MemoryVideoRepository) FindByIDs(_ context.Context, ids []string) (map[string]models.Video, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.Video, len(ids))
	for _, id := range ids {
		if video, ok := s.videos[id]; ok {
			out[id] = video
		}
	}
	return out, nil
}

// ListPublished filters, sorts and pages published videos.
func (r *MemoryVideoRepository) ListPublished(_ context.Context, query models.VideoQuery) ([]models.Video, int, error) {
	s := r.state
	s.mu.RLock()
	text := strings.ToLower(strings.TrimSpace(query.Text))
	matched := make([]models.Video, 0, len(s.videos))
	for _, video := range s.videos {
		if !video.IsPublished {
			continue
		}
		if query.OwnerID != "" && video.OwnerID != query.OwnerID {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(video.Title), text) && !strings.Contains(strings.ToLower(video.Description), text) {
			continue
		}
		matched = append(matched, video)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		cmp := compareVideos(a, b, query.SortBy)
		if cmp == 0 {
			cmp = strings.Compare(a.ID, b.ID)
		}
		if query.SortAsc {
			return cmp < 0
		}
		return cmp > 0
	})

	total := len(matched)
	if query.Offset >= total {
		return []models.Video{}, total, nil
	}
	end := query.Offset + query.Limit
	if end > total {
		end = total
	}
	return matched[query.Offset:end], total, nil
}

func compareVideos(a, b models.Video, sortBy string) int {
	switch sortBy {
	case models.SortByViews:
		return compareOrdered(a.Views, b.Views)
	case models.SortByDuration:
		return compareOrdered(a.Duration, b.Duration)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Update rewrites title, description and thumbnail.
func (r *MemoryVideoRepository) Update(_ context.Context, video models.Video) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.videos[video.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = video.Title
	stored.Description = video.Description
	stored.Thumbnail = video.Thumbnail
	stored.UpdatedAt = video.UpdatedAt
	s.videos[video.ID] = stored
	return nil
}

// TogglePublished flips the publish flag under the store lock.
func (r *MemoryVideoRepository) TogglePublished(_ context.Context, id string, at time.Time) (models.Video, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	stored.IsPublished = !stored.IsPublished
	stored.UpdatedAt = at
	s.videos[id] = stored
	return stored, nil
}

// Delete removes a video along with its likes and history entries.
func (r *MemoryVideoRepository) Delete(_ context.Context, id string) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[id]; !ok {
		return ErrNotFound
	}
	delete(s.videos, id)
	for key := range s.likes {
		if key[0] == id {
			delete(s.likes, key)
		}
	}
	for userID, entries := range s.history {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.videoID != id {
				kept = append(kept, entry)
			}
		}
		s.history[userID] = kept
	}
	return nil
}

// IncrementViews bumps the view counter and returns the new value.
func (r *MemoryVideoRepository) IncrementViews(_ context.Context, id string) (int64, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return 0, ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return video.Views, nil
}

// MemorySubscriptionRepository implements SubscriptionRepository in memory.
type MemorySubscriptionRepository struct {
	state *memoryState
}

// Create adds a subscription edge; duplicates return ErrConflict.
func (r *MemorySubscriptionRepository) Create(_ context.Context, sub models.Subscription) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{sub.SubscriberID, sub.ChannelID}
	if _, ok := s.subscriptions[key]; ok {
		return ErrConflict
	}
	if _, ok := s.users[sub.ChannelID]; !ok {
		return ErrNotFound
	}
	s.subscriptions[key] = sub
	return nil
}

// Delete removes a subscription edge.
func (r *MemorySubscriptionRepository) Delete(_ context.Context, subscriberID, channelID string) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{subscriberID, channelID}
	if _, ok := s.subscriptions[key]; !ok {
		return ErrNotFound
	}
	delete(s.subscriptions, key)
	return nil
}

// Exists reports whether the subscriber follows the channel.
func (r *MemorySubscriptionRepository) Exists(_ context.Context, subscriberID, channelID string) (bool, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.subscriptions[[2]string{subscriberID, channelID}]
	return ok, nil
}

// CountSubscribers counts the channel's subscribers.
func (r *MemorySubscriptionRepository) CountSubscribers(_ context.Context, channelID string) (int, error) {
	return r.count(func(key [2]string) bool { return key[1] == channelID }), nil
}

// CountSubscriptions counts the channels a user follows.
func (r *MemorySubscriptionRepository) CountSubscriptions(_ context.Context, subscriberID string) (int, error) {
	return r.count(func(key [2]string) bool { return key[0] == subscriberID }), nil
}

func (r *MemorySubscriptionRepository) count(match func([2]string) bool) int {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for key := range s.subscriptions {
		if match(key) {
			n++
		}
	}
	return n
}

// MemoryLikeRepository implements LikeRepository in memory.
type MemoryLikeRepository struct {
	state *memoryState
}

// Create adds a like; duplicates return ErrConflict.
func (r *MemoryLikeRepository) Create(_ context.Context, like models.Like) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{like.VideoID, like.LikedBy}
	if _, ok := s.likes[key]; ok {
		return ErrConflict
	}
	if _, ok := s.videos[like.VideoID]; !ok {
		return ErrNotFound
	}
	s.likes[key] = like
	return nil
}

// Delete removes a like.
func (r *MemoryLikeRepository) Delete(_ context.Context, videoID, userID string) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{videoID, userID}
	if _, ok := s.likes[key]; !ok {
		return ErrNotFound
	}
	delete(s.likes, key)
	return nil
}

// Exists reports whether the user liked the video.
func (r *MemoryLikeRepository) Exists(_ context.Context, videoID, userID string) (bool, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.likes[[2]string{videoID, userID}]
	return ok, nil
}

// CountForVideo counts the likes on a video.
func (r *MemoryLikeRepository) CountForVideo(_ context.Context, videoID string) (int, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for key := range s.likes {
		if key[0] == videoID {
			n++
		}
	}
	return n, nil
}

// MemoryHistoryRepository implements HistoryRepository in memory.
type MemoryHistoryRepository struct {
	state *memoryState
}

// Record moves videoID to the front of the user's history.
func (r *MemoryHistoryRepository) Record(_ context.Context, userID, videoID string, at time.Time) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[videoID]; !ok {
		return ErrNotFound
	}
	entries := s.history[userID]
	kept := entries[:0]
	for _, entry := range entries {
		if entry.videoID != videoID {
			kept = append(kept, entry)
		}
	}
	s.seq++
	s.history[userID] = append(kept, historyEntry{videoID: videoID, watchedAt: at, seq: s.seq})
	return nil
}

// List returns watched video ids, most recent first. A limit <= 0 returns all of them.
func (r *MemoryHistoryRepository) List(_ context.Context, userID string, limit int) ([]string, error) {
	s := r.state
	s.mu.RLock()
	entries := append([]historyEntry(nil), s.history[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].watchedAt.Equal(entries[j].watchedAt) {
			return entries[i].watchedAt.After(entries[j].watchedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, entry.videoID)
	}
	return ids, nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)
var _ VideoRepository = (*MemoryVideoRepository)(nil)
var _ SubscriptionRepository = (*MemorySubscriptionRepository)(nil)
var _ LikeRepository = (*MemoryLikeRepository)(nil)
var _ HistoryRepository = (*MemoryHistoryRepository)(nil)
