package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func classifyWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

const userColumns = `id, username, email, full_name, password_hash, avatar, cover_image, refresh_token, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user         models.User
		refreshToken sql.NullString
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password, &user.Avatar, &user.CoverImage, &refreshToken, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, err
	}
	user.RefreshToken = refreshToken.String
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar, cover_image, refresh_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
    `, user.ID, user.Username, user.Email, user.FullName, user.Password, user.Avatar, user.CoverImage, user.RefreshToken, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert user")
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByUsername fetches a user by their (lowercase) username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindByLogin fetches a user whose username or email equals identifier.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, identifier string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1 LIMIT 1`, identifier)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// FindByIDs fetches every user in ids. Missing ids are absent from the result.
func (r *PostgresUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Exists reports whether the username or the email is already taken.
func (r *PostgresUserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)
    `, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return exists, nil
}

// UpdateDetails changes the full name and email of a user and returns the stored record.
func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, email, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, classifyWriteError(err, "update user details")
	}

	return user, nil
}

// SetAvatar stores a new avatar location.
func (r *PostgresUserRepository) SetAvatar(ctx context.Context, id, location string) error {
	return r.exec(ctx, "update avatar", `UPDATE users SET avatar = $2, updated_at = $3 WHERE id = $1`, id, location, time.Now().UTC())
}

// SetCoverImage stores a new cover image location.
func (r *PostgresUserRepository) SetCoverImage(ctx context.Context, id, location string) error {
	return r.exec(ctx, "update cover image", `UPDATE users SET cover_image = $2, updated_at = $3 WHERE id = $1`, id, location, time.Now().UTC())
}

// UpdatePassword stores a new password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, "update password", `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, passwordHash, time.Now().UTC())
}

// SetRefreshToken overwrites the stored refresh token. An empty token stores NULL.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, "update refresh token", `UPDATE users SET refresh_token = NULLIF($2, ''), updated_at = $3 WHERE id = $1`, id, token, time.Now().UTC())
}

// SwapRefreshToken replaces current with next in a single conditional update.
func (r *PostgresUserRepository) SwapRefreshToken(ctx context.Context, id, current, next string) error {
	if current == "" {
		return ErrStaleToken
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $3, updated_at = $4
        WHERE id = $1 AND refresh_token = $2
    `, id, current, next, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrStaleToken
	}

	return nil
}

func (r *PostgresUserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return classifyWriteError(err, op)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

const videoColumns = `id, owner_id, title, description, video_file, thumbnail, duration, views, is_published, created_at, updated_at`

func scanVideo(row rowScanner) (models.Video, error) {
	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoFile, &video.Thumbnail, &video.Duration, &video.Views, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt); err != nil {
		return models.Video{}, err
	}
	video.CreatedAt = video.CreatedAt.UTC()
	video.UpdatedAt = video.UpdatedAt.UTC()
	return video, nil
}

var videoSortColumns = map[string]string{
	models.SortByCreatedAt: "created_at",
	models.SortByViews:     "views",
	models.SortByDuration:  "duration",
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_file, thumbnail, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoFile, video.Thumbnail, video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert video")
	}

	return nil
}

// FindByID fetches a video by identifier regardless of its publication state.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// FindByIDs fetches every video in ids. Missing ids are absent from the result.
func (r *PostgresVideoRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error) {
	videos := make(map[string]models.Video, len(ids))
	if len(ids) == 0 {
		return videos, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos[video.ID] = video
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// ListPublished filters, sorts and pages published videos.
func (r *PostgresVideoRepository) ListPublished(ctx context.Context, query models.VideoQuery) ([]models.Video, int, error) {
	column, ok := videoSortColumns[query.SortBy]
	if !ok {
		column = videoSortColumns[models.SortByCreatedAt]
	}
	direction := "DESC"
	if query.SortAsc {
		direction = "ASC"
	}

	where := []string{"is_published = TRUE"}
	var args []any
	if text := strings.TrimSpace(query.Text); text != "" {
		args = append(args, "%"+escapeLike(text)+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if query.OwnerID != "" {
		args = append(args, query.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	filter := strings.Join(where, " AND ")

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE `+filter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}
	if total == 0 || query.Offset >= total {
		return []models.Video{}, total, nil
	}

	pageArgs := append(append([]any{}, args...), query.Limit, query.Offset)
	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM videos
        WHERE %s
        ORDER BY %s %s, id %s
        LIMIT $%d OFFSET $%d
    `, videoColumns, filter, column, direction, direction, len(pageArgs)-1, len(pageArgs)), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0, query.Limit)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, total, nil
}

// Update stores the mutable fields of a video. The owner is never changed.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail = $4, updated_at = $5
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.Thumbnail, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// TogglePublished flips is_published in a single statement and returns the updated row.
func (r *PostgresVideoRepository) TogglePublished(ctx context.Context, id string, at time.Time) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET is_published = NOT is_published, updated_at = $2
        WHERE id = $1
        RETURNING `+videoColumns, id, at.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("toggle video publish state: %w", err)
	}
	return video, nil
}

// Delete removes a video. Likes and history rows go with it through ON DELETE CASCADE.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementViews adds one view and returns the new counter.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var views int64
	if err := conn.QueryRow(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment views: %w", err)
	}

	return views, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create stores a subscription edge.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3)
    `, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		return classifyWriteError(err, "insert subscription")
	}

	return nil
}

// Delete removes a subscription edge.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	return deleteEdge(ctx, r.pool, "delete subscription", `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`, subscriberID, channelID)
}

// Exists reports whether subscriberID follows channelID.
func (r *PostgresSubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return queryBool(ctx, r.pool, "check subscription", `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)`, subscriberID, channelID)
}

// CountSubscribers counts the subscribers of a channel.
func (r *PostgresSubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int, error) {
	return queryCount(ctx, r.pool, "count subscribers", `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountSubscriptions counts the channels a user follows.
func (r *PostgresSubscriptionRepository) CountSubscriptions(ctx context.Context, subscriberID string) (int, error) {
	return queryCount(ctx, r.pool, "count subscriptions", `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Create stores a like.
func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (video_id, liked_by, created_at)
        VALUES ($1, $2, $3)
    `, like.VideoID, like.LikedBy, like.CreatedAt)
	if err != nil {
		return classifyWriteError(err, "insert like")
	}

	return nil
}

// Delete removes a like.
func (r *PostgresLikeRepository) Delete(ctx context.Context, videoID, userID string) error {
	return deleteEdge(ctx, r.pool, "delete like", `DELETE FROM likes WHERE video_id = $1 AND liked_by = $2`, videoID, userID)
}

// Exists reports whether userID liked videoID.
func (r *PostgresLikeRepository) Exists(ctx context.Context, videoID, userID string) (bool, error) {
	return queryBool(ctx, r.pool, "check like", `SELECT EXISTS (SELECT 1 FROM likes WHERE video_id = $1 AND liked_by = $2)`, videoID, userID)
}

// CountForVideo counts the likes of a video.
func (r *PostgresLikeRepository) CountForVideo(ctx context.Context, videoID string) (int, error) {
	return queryCount(ctx, r.pool, "count likes", `SELECT COUNT(*) FROM likes WHERE video_id = $1`, videoID)
}

// PostgresHistoryRepository provides PostgreSQL-backed persistence for watch history.
type PostgresHistoryRepository struct {
	pool db.Pool
}

// NewPostgresHistoryRepository constructs a watch history repository backed by PostgreSQL.
func NewPostgresHistoryRepository(pool db.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{pool: pool}
}

// Record upserts the (user, video) entry so a repeated watch moves it to the front.
func (r *PostgresHistoryRepository) Record(ctx context.Context, userID, videoID string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, at.UTC())
	if err != nil {
		return classifyWriteError(err, "record watch history")
	}

	return nil
}

// List returns the user's watched video ids, most recent first. A limit <= 0 returns
// the whole history.
func (r *PostgresHistoryRepository) List(ctx context.Context, userID string, limit int) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `
        SELECT video_id
        FROM watch_history
        WHERE user_id = $1
        ORDER BY watched_at DESC, video_id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return ids, nil
}

func deleteEdge(ctx context.Context, pool db.Pool, op, query string, a, b string) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, a, b)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func queryBool(ctx context.Context, pool db.Pool, op, query string, args ...any) (bool, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var ok bool
	if err := conn.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

func queryCount(ctx context.Context, pool db.Pool, op, query string, args ...any) (int, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int
	if err := conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ HistoryRepository = (*PostgresHistoryRepository)(nil)
