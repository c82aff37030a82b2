package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/hongminglow/valentine-be/internal/migrations"
	"github.com/hongminglow/valentine-be/internal/models"
	"github.com/hongminglow/valentine-be/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for users.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new Store and runs migrations.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	// The *sql.DB borrows connections from the pool and keeps none idle, so
	// closing the pool is enough to release it.
	db := stdlib.OpenDBFromPool(s.pool)
	return migrations.Up(ctx, db, migrations.Postgres)
}

// CreateUser inserts a new user row unless the username is taken.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (username, password_hash)
	VALUES ($1, $2)
	ON CONFLICT (username) DO NOTHING
	RETURNING id, username, password_hash, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Username, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// DO NOTHING returned no row: the username already exists.
			return models.User{}, storage.ErrAlreadyExists
		case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
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
	WHERE username = $1;
	`
	row := s.pool.QueryRow(ctx, query, username)
	user, err := scanUser(row)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, err
}

// UpdatePasswordHash replaces the stored hash for username.
func (s *Store) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	const query = `
	UPDATE users
	SET password_hash = $2
	WHERE username = $1;
	`
	tag, err := s.pool.Exec(ctx, query, username, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
