package quizzes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteRepo implements Repo on SQLite. updated_at is stored as unix millis.
type SQLiteRepo struct {
	Pool Pool
	Now  func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Get returns the stored quiz text for a user.
func (r *SQLiteRepo) Get(ctx context.Context, userID string) (Record, error) {
	const query = `SELECT quiz_data, updated_at FROM user_quizzes WHERE user_id = ?`

	conn, err := r.Pool.Conn(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("%w: acquire connection: %w", ErrUnavailable, err)
	}
	defer conn.Close()

	var (
		data      string
		updatedAt int64
	)
	if err := conn.QueryRowContext(ctx, query, userID).Scan(&data, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, classify(err, ErrUnavailable)
	}
	return Record{UserID: userID, Data: data, UpdatedAt: fromMillis(updatedAt)}, nil
}

// Upsert inserts or replaces the quiz text for a user in one statement.
func (r *SQLiteRepo) Upsert(ctx context.Context, userID, data string) (Record, error) {
	const query = `
INSERT INTO user_quizzes (user_id, quiz_data, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    quiz_data = excluded.quiz_data,
    updated_at = excluded.updated_at`

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	updatedAt := toMillis(now())

	conn, err := r.Pool.Conn(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("%w: acquire connection: %w", ErrUnavailable, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, query, userID, data, updatedAt); err != nil {
		return Record{}, classify(err, ErrWriteFailed)
	}
	return Record{UserID: userID, Data: data, UpdatedAt: fromMillis(updatedAt)}, nil
}

var _ Repo = (*SQLiteRepo)(nil)
