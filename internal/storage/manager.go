/**
 * Storage Manager for the OCR verification worker
 *
 * Coordinates PostgreSQL (job rows, result documents) and the Redis
 * result cache. Postgres is required; the cache is optional and its
 * absence only disables the identical-image shortcut.
 */

package storage

import (
	"context"
	"fmt"
	"time"
)

// Manager coordinates PostgreSQL and the Redis cache.
type Manager struct {
	postgres *PostgresClient
	cache    *ResultCache
}

// NewManager wires the persistence backends. Pass cacheTTL <= 0 to run
// without a cache.
func NewManager(postgresURL, redisURL string, cacheTTL time.Duration) (*Manager, error) {
	postgres, err := NewPostgresClient(postgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
	}

	var cache *ResultCache
	if cacheTTL > 0 {
		cache, err = NewResultCache(redisURL, cacheTTL)
		if err != nil {
			postgres.Close()
			return nil, fmt.Errorf("failed to initialize result cache: %w", err)
		}
	}

	return &Manager{postgres: postgres, cache: cache}, nil
}

// Cache returns the page cache, or nil when caching is disabled.
func (m *Manager) Cache() *ResultCache {
	return m.cache
}

// UpdateJobStatus forwards to the PostgreSQL client.
func (m *Manager) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	return m.postgres.UpdateJobStatus(ctx, update)
}

// StoreResult forwards to the PostgreSQL client.
func (m *Manager) StoreResult(ctx context.Context, rec *ResultRecord) (string, error) {
	return m.postgres.StoreResult(ctx, rec)
}

// Ping verifies PostgreSQL connectivity.
func (m *Manager) Ping(ctx context.Context) error {
	return m.postgres.Ping(ctx)
}

// Close releases both backends; the first error wins.
func (m *Manager) Close() error {
	var first error
	if m.cache != nil {
		if err := m.cache.Close(); err != nil {
			first = err
		}
	}
	if err := m.postgres.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
