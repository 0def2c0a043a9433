package store

import (
	"context"
	"time"

	"github.com/pavelanni/toetsgen/internal/model"
)

// AddFeedback stores a feedback message.
func (s *Store) AddFeedback(ctx context.Context, f model.Feedback) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (user_id, name, message, created_at) VALUES (?, ?, ?, ?)`,
		f.UserID, f.Name, f.Message, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListFeedback returns all feedback, newest first.
func (s *Store) ListFeedback(ctx context.Context) ([]model.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, message, created_at FROM feedback ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
