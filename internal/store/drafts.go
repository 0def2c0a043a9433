package store

import (
	"context"
	"database/sql"
	"time"
)

// SaveDraft stores the encoded configuration draft of a user.
func (s *Store) SaveDraft(ctx context.Context, userID int64, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(data), time.Now(),
	)
	return err
}

// GetDraft returns the stored draft, or nil if the user has none.
func (s *Store) GetDraft(ctx context.Context, userID int64) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM drafts WHERE user_id = ?`, userID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// DeleteDraft removes a user's draft.
func (s *Store) DeleteDraft(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE user_id = ?`, userID)
	return err
}
