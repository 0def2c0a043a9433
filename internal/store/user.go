package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/toetsgen/internal/model"
)

// ErrDuplicateEmail is returned when an account already exists for an e-mail.
var ErrDuplicateEmail = errors.New("store: e-mail already registered")

const userColumns = `id, email, school_name, password_hash, role, created_at`

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, u model.User) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, school_name, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.SchoolName, u.PasswordHash, u.Role, time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		slog.Error("failed to create user", "email", u.Email, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created user", "id", id, "email", u.Email, "role", u.Role)
	return id, nil
}

// Register creates a teacher account and its pending access request in one
// transaction. The request description records the school name.
func (s *Store) Register(ctx context.Context, u model.User) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, school_name, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.SchoolName, u.PasswordHash, model.UserRoleTeacher, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	// An earlier request for the same address (e.g. created by an admin) is kept.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO access_requests (email, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		u.Email, "School: "+u.SchoolName, model.RequestPending, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert access request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Info("registered user", "id", id, "email", u.Email, "school", u.SchoolName)
	return id, nil
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.SchoolName, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail returns a user by e-mail, or nil if none exists.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// GetUserByID returns a user by ID, or nil if none exists.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// SetPassword replaces a user's password hash.
func (s *Store) SetPassword(ctx context.Context, id int64, hash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	return err
}

// UserCount returns the total number of users.
func (s *Store) UserCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
