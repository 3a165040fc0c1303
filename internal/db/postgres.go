package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/bmvault/internal/models"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps users, bookmarks and sessions in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and runs migrations.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS bookmarks_user_idx ON bookmarks (user_id);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at TIMESTAMPTZ NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	const query = `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at;`
	created, err := scanPgUser(s.pool.QueryRow(ctx, query, username, passwordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `SELECT id, username, password_hash, created_at FROM users WHERE username = $1;`
	return scanPgUser(s.pool.QueryRow(ctx, query, username))
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT id, username, password_hash, created_at FROM users WHERE id = $1;`
	return scanPgUser(s.pool.QueryRow(ctx, query, id))
}

func scanPgUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

const pgBookmarkColumns = `id, title, url, tags, note, is_favorite, created_at`

func (s *PostgresStore) ListBookmarks(ctx context.Context, userID int64, query string) ([]models.Bookmark, error) {
	q := `SELECT ` + pgBookmarkColumns + ` FROM bookmarks WHERE user_id = $1`
	args := []any{userID}
	if query != "" {
		q += ` AND (title ILIKE $2 ESCAPE '\' OR url ILIKE $2 ESCAPE '\' OR tags ILIKE $2 ESCAPE '\' OR note ILIKE $2 ESCAPE '\')`
		args = append(args, likePattern(query))
	}
	q += ` ORDER BY is_favorite DESC, created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookmarks := []models.Bookmark{}
	for rows.Next() {
		b, err := scanPgBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

func scanPgBookmark(row pgx.Row) (models.Bookmark, error) {
	var b models.Bookmark
	var fav bool
	if err := row.Scan(&b.ID, &b.Title, &b.URL, &b.Tags, &b.Note, &fav, &b.CreatedAt.Time); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Bookmark{}, ErrNotFound
		}
		return models.Bookmark{}, err
	}
	b.IsFavorite = models.Flag(fav)
	b.CreatedAt.Time = b.CreatedAt.UTC()
	return b, nil
}

func (s *PostgresStore) CreateBookmark(ctx context.Context, userID int64, in models.BookmarkInput) (models.Bookmark, error) {
	const query = `
		INSERT INTO bookmarks (user_id, title, url, tags, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + pgBookmarkColumns + `;`
	return scanPgBookmark(s.pool.QueryRow(ctx, query, userID, in.Title, in.URL, in.Tags, in.Note))
}

func (s *PostgresStore) UpdateBookmark(ctx context.Context, userID, id int64, in models.BookmarkInput) (models.Bookmark, error) {
	const query = `
		UPDATE bookmarks SET title = $3, url = $4, tags = $5, note = $6
		WHERE id = $1 AND user_id = $2
		RETURNING ` + pgBookmarkColumns + `;`
	return scanPgBookmark(s.pool.QueryRow(ctx, query, id, userID, in.Title, in.URL, in.Tags, in.Note))
}

func (s *PostgresStore) DeleteBookmark(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bookmarks WHERE id = $1 AND user_id = $2;`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ToggleFavorite(ctx context.Context, userID, id int64) (bool, error) {
	var fav bool
	err := s.pool.QueryRow(ctx,
		`UPDATE bookmarks SET is_favorite = NOT is_favorite WHERE id = $1 AND user_id = $2 RETURNING is_favorite;`,
		id, userID).Scan(&fav)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	return fav, err
}

func (s *PostgresStore) CountBookmarks(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookmarks WHERE user_id = $1;`, userID).Scan(&count)
	return count, err
}

func (s *PostgresStore) SaveSession(ctx context.Context, sess models.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at;`,
		sess.Token, sess.UserID, sess.ExpiresAt)
	return err
}

func (s *PostgresStore) LoadSession(ctx context.Context, token string) (models.Session, error) {
	sess := models.Session{Token: token}
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE token = $1;`, token).Scan(&sess.UserID, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, ErrNotFound
	}
	return sess, err
}

func (s *PostgresStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1;`, token)
	return err
}
