package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/calday/internal/shared"
)

// TokenKey is the well-known key the bearer token is stored under.
const TokenKey = "googleToken"

// TokenRepository persists the opaque bearer token under [TokenKey].
type TokenRepository struct {
	db  *sql.DB
	key string
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db, key: TokenKey}
}

// Save writes token under the fixed key, overwriting any prior value.
func (r *TokenRepository) Save(ctx context.Context, token string) error {
	query := `
		INSERT INTO tokens (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := execAffected(ctx, r.db, query, r.key, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to save token: %v", shared.ErrStorage, err)
	}
	return nil
}

// Load returns the stored token. ok is false when no token has been saved.
func (r *TokenRepository) Load(ctx context.Context) (token string, ok bool, err error) {
	err = r.db.QueryRowContext(ctx, "SELECT value FROM tokens WHERE key = ?", r.key).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to load token: %v", shared.ErrStorage, err)
	}
	return token, true, nil
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (r *TokenRepository) Clear(ctx context.Context) error {
	if _, err := execAffected(ctx, r.db, "DELETE FROM tokens WHERE key = ?", r.key); err != nil {
		return fmt.Errorf("%w: failed to clear token: %v", shared.ErrStorage, err)
	}
	return nil
}

// UpdatedAt returns when the token was last written, or the zero time if absent.
func (r *TokenRepository) UpdatedAt(ctx context.Context) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, "SELECT updated_at FROM tokens WHERE key = ?", r.key).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to read token timestamp: %v", shared.ErrStorage, err)
	}
	return updatedAt, nil
}
