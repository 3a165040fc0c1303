package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/user/bmvault/internal/models"
)

var _ Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		is_favorite INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_bookmarks_user ON bookmarks(user_id);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMP NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.User{}, ErrAlreadyExists
		}
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return models.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (s *SQLiteStore) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
	return scanSQLiteUser(row)
}

func (s *SQLiteStore) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanSQLiteUser(row)
}

func scanSQLiteUser(row *sql.Row) (models.User, error) {
	var u models.User
	var createdAt sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	if createdAt.Valid {
		u.CreatedAt = createdAt.Time
	}
	return u, nil
}

const sqliteBookmarkColumns = `id, title, url, tags, note, is_favorite, created_at`

// ListBookmarks returns the user's bookmarks, favorites first then newest.
// A non-empty query keeps rows whose title, url, tags or note contain it
// (SQLite LIKE is case-insensitive for ASCII).
func (s *SQLiteStore) ListBookmarks(ctx context.Context, userID int64, query string) ([]models.Bookmark, error) {
	q := `SELECT ` + sqliteBookmarkColumns + ` FROM bookmarks WHERE user_id = ?`
	args := []interface{}{userID}
	if query != "" {
		q += ` AND (title LIKE ? ESCAPE '\' OR url LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\' OR note LIKE ? ESCAPE '\')`
		p := likePattern(query)
		args = append(args, p, p, p, p)
	}
	q += ` ORDER BY is_favorite DESC, created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookmarks := []models.Bookmark{}
	for rows.Next() {
		b, err := scanSQLiteBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteBookmark(row scanner) (models.Bookmark, error) {
	var b models.Bookmark
	var fav bool
	var createdAt sql.NullTime
	if err := row.Scan(&b.ID, &b.Title, &b.URL, &b.Tags, &b.Note, &fav, &createdAt); err != nil {
		return models.Bookmark{}, err
	}
	b.IsFavorite = models.Flag(fav)
	if createdAt.Valid {
		b.CreatedAt = models.Timestamp{Time: createdAt.Time.UTC()}
	}
	return b, nil
}

func (s *SQLiteStore) getBookmark(ctx context.Context, userID, id int64) (models.Bookmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteBookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanSQLiteBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bookmark{}, ErrNotFound
	}
	return b, err
}

func (s *SQLiteStore) CreateBookmark(ctx context.Context, userID int64, in models.BookmarkInput) (models.Bookmark, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, title, url, tags, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, in.Title, in.URL, in.Tags, in.Note, time.Now().UTC())
	if err != nil {
		return models.Bookmark{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Bookmark{}, err
	}
	return s.getBookmark(ctx, userID, id)
}

func (s *SQLiteStore) UpdateBookmark(ctx context.Context, userID, id int64, in models.BookmarkInput) (models.Bookmark, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookmarks SET title = ?, url = ?, tags = ?, note = ? WHERE id = ? AND user_id = ?`,
		in.Title, in.URL, in.Tags, in.Note, id, userID)
	if err != nil {
		return models.Bookmark{}, err
	}
	if err := requireRow(res); err != nil {
		return models.Bookmark{}, err
	}
	return s.getBookmark(ctx, userID, id)
}

func (s *SQLiteStore) DeleteBookmark(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) ToggleFavorite(ctx context.Context, userID, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookmarks SET is_favorite = 1 - is_favorite WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	if err := requireRow(res); err != nil {
		return false, err
	}
	b, err := s.getBookmark(ctx, userID, id)
	if err != nil {
		return false, err
	}
	return bool(b.IsFavorite), nil
}

func (s *SQLiteStore) CountBookmarks(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt.UTC())
	return err
}

func (s *SQLiteStore) LoadSession(ctx context.Context, token string) (models.Session, error) {
	sess := models.Session{Token: token}
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE token = ?`, token).Scan(&sess.UserID, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrNotFound
	}
	return sess, err
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
