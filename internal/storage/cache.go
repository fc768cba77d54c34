/**
 * Redis result cache
 *
 * Caches the fused result per page image so re-submitting an identical
 * image skips the whole ensemble. Keyed by SHA-256 of the image bytes;
 * cache misses and Redis failures both degrade to recomputation.
 */

package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/1004-Akash/mosip-decode/internal/logging"
	"github.com/1004-Akash/mosip-decode/internal/ocr"
)

const cacheKeyPrefix = "ocr:page:"

// ResultCache stores per-page results keyed by image digest.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logging.Logger
}

// NewResultCache connects to Redis and verifies connectivity.
func NewResultCache(redisURL string, ttl time.Duration) (*ResultCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &ResultCache{
		client: client,
		ttl:    ttl,
		log:    logging.NewLogger("cache"),
	}, nil
}

// cachedPage is the serialized cache entry for one image.
type cachedPage struct {
	EngineOutputs map[string]ocr.EngineResult `json:"engine_outputs"`
	FusedResult   ocr.FusedResult             `json:"fused_result"`
}

// Key derives the cache key for an image.
func (c *ResultCache) Key(image []byte) string {
	sum := sha256.Sum256(image)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// GetPage returns the cached outputs for an image, or ok=false on miss or
// Redis error.
func (c *ResultCache) GetPage(ctx context.Context, image []byte) (map[string]ocr.EngineResult, ocr.FusedResult, bool) {
	data, err := c.client.Get(ctx, c.Key(image)).Bytes()
	if err == redis.Nil {
		return nil, ocr.FusedResult{}, false
	}
	if err != nil {
		c.log.Warn("cache read failed", "error", err)
		return nil, ocr.FusedResult{}, false
	}

	var page cachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		c.log.Warn("cache entry corrupt, ignoring", "error", err)
		return nil, ocr.FusedResult{}, false
	}
	return page.EngineOutputs, page.FusedResult, true
}

// PutPage stores the outputs for an image; failures are logged, never
// surfaced, since the cache is purely an optimization.
func (c *ResultCache) PutPage(ctx context.Context, image []byte, outputs map[string]ocr.EngineResult, fused ocr.FusedResult) {
	data, err := json.Marshal(&cachedPage{EngineOutputs: outputs, FusedResult: fused})
	if err != nil {
		c.log.Warn("cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, c.Key(image), data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "error", err)
	}
}

// Close releases the Redis connection.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
