package quizzes

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Record // userId -> record
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Record),
		now:  time.Now,
	}
}

// Get returns the stored record for a user.
func (r *MemoryRepo) Get(ctx context.Context, userID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[userID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Upsert stores/overwrites the record for a user.
func (r *MemoryRepo) Upsert(ctx context.Context, userID, data string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := Record{UserID: userID, Data: data, UpdatedAt: r.now().UTC()}
	r.data[userID] = rec
	return rec, nil
}

var _ Repo = (*MemoryRepo)(nil)
