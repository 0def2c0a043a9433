package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/toetsgen/internal/model"
)

// ApprovalStatus returns the status of the access request for email.
// found is false when no request exists.
func (s *Store) ApprovalStatus(ctx context.Context, email string) (model.RequestStatus, bool, error) {
	var status model.RequestStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM access_requests WHERE email = ?`, email,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

// GetAccessRequest returns the access request for email.
func (s *Store) GetAccessRequest(ctx context.Context, email string) (*model.AccessRequest, error) {
	var r model.AccessRequest
	err := s.db.QueryRowContext(ctx,
		`SELECT email, description, status, created_at, updated_at FROM access_requests WHERE email = ?`, email,
	).Scan(&r.Email, &r.Description, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListAccessRequests returns requests, pending first, newest first within a status.
// An empty status lists all of them.
func (s *Store) ListAccessRequests(ctx context.Context, status model.RequestStatus) ([]model.AccessRequest, error) {
	query := `SELECT email, description, status, created_at, updated_at FROM access_requests WHERE 1=1`
	var args []any
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY status = 'approved', created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reqs []model.AccessRequest
	for rows.Next() {
		var r model.AccessRequest
		if err := rows.Scan(&r.Email, &r.Description, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// SetAccessStatus changes the status of an existing request.
func (s *Store) SetAccessStatus(ctx context.Context, email string, status model.RequestStatus) error {
	switch status {
	case model.RequestPending, model.RequestApproved:
	default:
		return fmt.Errorf("invalid access status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE access_requests SET status = ?, updated_at = ? WHERE email = ?`,
		status, time.Now(), email,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.Info("access status changed", "email", email, "status", status)
	return nil
}

// UpsertAccessRequest creates or replaces the request for email.
func (s *Store) UpsertAccessRequest(ctx context.Context, r model.AccessRequest) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO access_requests (email, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET description = excluded.description,
		   status = excluded.status, updated_at = excluded.updated_at`,
		r.Email, r.Description, r.Status, now, now,
	)
	return err
}

// CreateTrainingRequest stores a pending training request. Training requests
// are kept apart from access requests so they never affect approval.
func (s *Store) CreateTrainingRequest(ctx context.Context, email, description string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO training_requests (email, description, status, created_at) VALUES (?, ?, ?, ?)`,
		email, description, model.RequestPending, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("training request stored", "id", id, "email", email)
	return id, nil
}

// ListTrainingRequests returns all training requests, newest first.
func (s *Store) ListTrainingRequests(ctx context.Context) ([]model.TrainingRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, description, status, created_at FROM training_requests ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reqs []model.TrainingRequest
	for rows.Next() {
		var r model.TrainingRequest
		if err := rows.Scan(&r.ID, &r.Email, &r.Description, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}
