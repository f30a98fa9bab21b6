package store

import (
	"context"
	"database/sql"
	"errors"
)

// CacheRepository holds small session-scoped values: the selected student in
// the admin contact pane, a cached conversation pointer. Cleared in full at
// logout so nothing identity-shaped survives into the next session.
type CacheRepository interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Clear(ctx context.Context) error
}

type cacheRepo struct {
	db *DB
}

func NewCacheRepository(db *DB) CacheRepository {
	return &cacheRepo{db: db}
}

func (r *cacheRepo) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_cache (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (r *cacheRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, `SELECT value FROM session_cache WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *cacheRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_cache`)
	return err
}
