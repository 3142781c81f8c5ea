package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/predictrisk/engine/internal/domain"
)

// QuoteCache caches market price snapshots as plain keys with a TTL. Keys
// hash the market URL so arbitrary URLs stay within key-length limits.
type QuoteCache struct {
	rdb *redis.Client
}

var _ domain.QuoteCache = (*QuoteCache)(nil)

// NewQuoteCache creates a QuoteCache backed by the given client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.rdb}
}

func quoteKey(marketURL string, outcomeIndex int) string {
	sum := sha1.Sum([]byte(marketURL))
	return "quote:" + hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(outcomeIndex)
}

// GetSnapshot returns the cached price in cents. Expired or absent keys
// return domain.ErrNotFound.
func (q *QuoteCache) GetSnapshot(ctx context.Context, marketURL string, outcomeIndex int) (int, error) {
	val, err := q.rdb.Get(ctx, quoteKey(marketURL, outcomeIndex)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis: get quote: %w", err)
	}

	cents, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("redis: parse quote %q: %w", val, err)
	}
	return cents, nil
}

// SetSnapshot stores a price snapshot with the given TTL.
func (q *QuoteCache) SetSnapshot(ctx context.Context, marketURL string, outcomeIndex int, priceCents int, ttl time.Duration) error {
	err := q.rdb.Set(ctx, quoteKey(marketURL, outcomeIndex), strconv.Itoa(priceCents), ttl).Err()
	if err != nil {
		return fmt.Errorf("redis: set quote: %w", err)
	}
	return nil
}
