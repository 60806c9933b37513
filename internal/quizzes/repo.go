package quizzes

import (
	"context"
	"database/sql"
)

// Pool hands out scoped connections. *sql.DB satisfies it.
type Pool interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// Repo persists one raw quiz document per user.
// Implementations return errors already classified with this package's sentinels.
type Repo interface {
	Get(ctx context.Context, userID string) (Record, error)
	Upsert(ctx context.Context, userID, data string) (Record, error)
}
