package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sweetshop/sweetshop-client/pkg/database"
)

// DefaultKey identifies the single session a client process keeps
const DefaultKey = "default"

// TokenRepository persists the bearer token between runs
type TokenRepository struct {
	db  *database.DB
	key string
}

// NewTokenRepository creates a token repository scoped to key
func NewTokenRepository(db *database.DB, key string) *TokenRepository {
	if key == "" {
		key = DefaultKey
	}
	return &TokenRepository{db: db, key: key}
}

// EnsureSchema creates the token table when it does not exist
func (r *TokenRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS session_tokens (
			session_key VARCHAR(64) PRIMARY KEY,
			token TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return mapError(fmt.Errorf("failed to create session_tokens: %w", err))
	}
	return nil
}

// Load returns the stored token, or "" when none is stored
func (r *TokenRepository) Load(ctx context.Context) (string, error) {
	var token string
	query := r.db.Rebind(`
		SELECT token
		FROM session_tokens
		WHERE session_key = ?
	`)

	if err := r.db.GetContext(ctx, &token, query, r.key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", mapError(err)
	}

	return token, nil
}

// Save stores token, replacing any previous one
func (r *TokenRepository) Save(ctx context.Context, token string) error {
	query := r.db.Rebind(`
		INSERT INTO session_tokens (session_key, token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (session_key) DO UPDATE
		SET token = excluded.token, updated_at = excluded.updated_at
	`)

	_, err := r.db.ExecContext(ctx, query, r.key, token, time.Now().UTC())
	return mapError(err)
}

// Clear removes the stored token
func (r *TokenRepository) Clear(ctx context.Context) error {
	query := r.db.Rebind(`DELETE FROM session_tokens WHERE session_key = ?`)
	_, err := r.db.ExecContext(ctx, query, r.key)
	return mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if appErr := database.MapPQError(pqErr); appErr != nil {
			return appErr
		}
	}
	return err
}
