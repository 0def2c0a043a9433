package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/toetsgen/internal/model"
)

// SaveTest persists a generated test with the configuration that produced it
// and returns its new ID.
func (s *Store) SaveTest(ctx context.Context, userID int64, cfg model.TestConfiguration, t *model.GeneratedTest) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal test: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO generated_tests (id, user_id, taxonomy, title, subject, level, config, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, t.Taxonomy, t.Title, cfg.Subject, cfg.Level, string(cfgJSON), string(data), time.Now(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetTest returns a stored test by ID.
func (s *Store) GetTest(ctx context.Context, id string) (*model.TestRecord, error) {
	var (
		rec           model.TestRecord
		cfgJSON, data string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, config, data, created_at FROM generated_tests WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.UserID, &cfgJSON, &data, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cfgJSON), &rec.Config); err != nil {
		return nil, fmt.Errorf("decode config of test %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(data), &rec.Test); err != nil {
		return nil, fmt.Errorf("decode test %s: %w", id, err)
	}
	return &rec, nil
}

// ListTests returns summaries of a user's tests, newest first.
func (s *Store) ListTests(ctx context.Context, userID int64) ([]model.TestSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, subject, level, taxonomy, created_at
		 FROM generated_tests WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tests []model.TestSummary
	for rows.Next() {
		var t model.TestSummary
		if err := rows.Scan(&t.ID, &t.Title, &t.Subject, &t.Level, &t.Taxonomy, &t.CreatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// DeleteTest removes a test owned by userID.
func (s *Store) DeleteTest(ctx context.Context, userID int64, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generated_tests WHERE id = ? AND user_id = ?`, id, userID)
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
	return nil
}
