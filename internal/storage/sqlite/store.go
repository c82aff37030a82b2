// Package sqlite provides a SQLite-backed credential store for single-host
// deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hongminglow/valentine-be/internal/migrations"
	"github.com/hongminglow/valentine-be/internal/models"
	"github.com/hongminglow/valentine-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store persists users in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite user store at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != MemoryPath {
		dsn = fileDSN(path)
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == MemoryPath {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrations.Up(ctx, sqlDB, migrations.SQLite); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

const filePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// fileDSN cleans the file part of path and appends the store pragmas to any
// query parameters the caller supplied. Caller parameters are only honoured
// by SQLite in URI form, so those DSNs keep the file: prefix.
func fileDSN(path string) string {
	file, query, _ := strings.Cut(path, "?")
	query = strings.Trim(query, "&")
	if query == "" {
		return filepath.Clean(file) + "?" + filePragmas
	}
	return "file:" + filepath.Clean(file) + "?" + query + "&" + filePragmas
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateUser inserts a new user row unless the username is taken.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (username, password_hash, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT (username) DO NOTHING
	RETURNING id, username, password_hash, created_at;
	`
	row := s.sqlDB.QueryRowContext(ctx, query, user.Username, user.PasswordHash, toMillis(s.now()))
	created, err := scanUser(row)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `
	SELECT id, username, password_hash, created_at
	FROM users
	WHERE username = ?;
	`
	row := s.sqlDB.QueryRowContext(ctx, query, username)
	user, err := scanUser(row)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, err
}

// UpdatePasswordHash replaces the stored hash for username.
func (s *Store) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE username = ?;`, hash, username)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		user    models.User
		created int64
	)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.CreatedAt = fromMillis(created)
	return user, nil
}
