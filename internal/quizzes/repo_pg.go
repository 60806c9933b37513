package quizzes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	Pool Pool
}

// Get returns the stored quiz text for a user.
func (r *PGRepo) Get(ctx context.Context, userID string) (Record, error) {
	const query = `
SELECT quiz_data, updated_at
FROM user_quizzes
WHERE user_id = $1`

	conn, err := r.Pool.Conn(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("%w: acquire connection: %w", ErrUnavailable, err)
	}
	defer conn.Close()

	rec := Record{UserID: userID}
	if err := conn.QueryRowContext(ctx, query, userID).Scan(&rec.Data, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, classify(err, ErrUnavailable)
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

// Upsert inserts or replaces the quiz text for a user in one statement.
func (r *PGRepo) Upsert(ctx context.Context, userID, data string) (Record, error) {
	const query = `
INSERT INTO user_quizzes (user_id, quiz_data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE
SET quiz_data = EXCLUDED.quiz_data,
    updated_at = now()
RETURNING updated_at`

	conn, err := r.Pool.Conn(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("%w: acquire connection: %w", ErrUnavailable, err)
	}
	defer conn.Close()

	var updatedAt time.Time
	if err := conn.QueryRowContext(ctx, query, userID, data).Scan(&updatedAt); err != nil {
		return Record{}, classify(err, ErrWriteFailed)
	}
	return Record{UserID: userID, Data: data, UpdatedAt: updatedAt.UTC()}, nil
}

var _ Repo = (*PGRepo)(nil)
