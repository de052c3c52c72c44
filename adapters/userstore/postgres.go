package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            text PRIMARY KEY,
	username      text NOT NULL UNIQUE,
	email         text NOT NULL UNIQUE,
	first_name    text NOT NULL DEFAULT '',
	last_name     text NOT NULL DEFAULT '',
	password_hash text NOT NULL,
	roles         text[] NOT NULL DEFAULT '{}',
	activated     boolean NOT NULL DEFAULT false,
	non_locked    boolean NOT NULL DEFAULT true,
	logout_at     timestamptz,
	created_at    timestamptz NOT NULL,
	updated_at    timestamptz NOT NULL
)`

const userColumns = `id, username, email, first_name, last_name, password_hash,
	roles, activated, non_locked, logout_at, created_at, updated_at`

// PostgresStore is a pgx-backed UserStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ ports.UserStore = (*PostgresStore)(nil)

// NewPostgresStore creates a user store on the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// FindByUsername returns the user, or nil when no row matches.
func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*core.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// FindByUsernameOrEmail returns the user matching either field, or nil.
func (s *PostgresStore) FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*core.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, usernameOrEmail)
	return scanUser(row)
}

// FindAllByUsernames returns the users whose username is in the list.
func (s *PostgresStore) FindAllByUsernames(ctx context.Context, usernames []string) ([]*core.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ANY($1) ORDER BY username`, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// FindAll returns every user, ordered by username.
func (s *PostgresStore) FindAll(ctx context.Context) ([]*core.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ExistsByUsernameOrEmail reports whether either field is already taken.
func (s *PostgresStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		username, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// Create inserts the user. The caller assigns the ID.
func (s *PostgresStore) Create(ctx context.Context, u *core.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		u.Roles, u.Activated, u.NonLocked, nullableTime(u.LogoutAt), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Save updates the user record by ID.
func (s *PostgresStore) Save(ctx context.Context, u *core.User) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET username = $2, email = $3, first_name = $4, last_name = $5,
		 password_hash = $6, roles = $7, activated = $8, non_locked = $9,
		 logout_at = $10, updated_at = $11
		 WHERE id = $1`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		u.Roles, u.Activated, u.NonLocked, nullableTime(u.LogoutAt), u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Delete removes the user by username.
func (s *PostgresStore) Delete(ctx context.Context, username string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*core.User, error) {
	var (
		u        core.User
		logoutAt *time.Time
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Roles, &u.Activated, &u.NonLocked, &logoutAt,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if logoutAt != nil {
		u.LogoutAt = *logoutAt
	}
	return &u, nil
}

func scanUsers(rows pgx.Rows) ([]*core.User, error) {
	var users []*core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
