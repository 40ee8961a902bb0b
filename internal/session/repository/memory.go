package repository

import (
	"context"
	"sync"
)

// MemoryTokenRepository keeps the token for the life of the process only
type MemoryTokenRepository struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenRepository creates an empty in-memory token store
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{}
}

func (r *MemoryTokenRepository) Load(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token, nil
}

func (r *MemoryTokenRepository) Save(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = token
	return nil
}

func (r *MemoryTokenRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = ""
	return nil
}
