package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// HistoryCounter reports how many prior transactions an address has, capped at limit.
type HistoryCounter interface {
	HistoryCount(ctx context.Context, address string, limit int) (int, error)
}

// HistoryCache remembers addresses already known to have more than one
// transaction. History only grows, so those entries can never become wrong;
// fresh results are never cached.
type HistoryCache struct {
	client *Client
	next   HistoryCounter
	ttl    time.Duration
	log    *slog.Logger
}

// NewHistoryCache wraps next with a Redis cache.
func NewHistoryCache(client *Client, next HistoryCounter, ttl time.Duration) *HistoryCache {
	return &HistoryCache{
		client: client,
		next:   next,
		ttl:    ttl,
		log:    slog.Default().With("component", "history_cache"),
	}
}

func historyKey(address string) string {
	return fmt.Sprintf("history:%s", address)
}

// HistoryCount serves non-fresh verdicts from Redis and delegates everything else.
func (h *HistoryCache) HistoryCount(ctx context.Context, address string, limit int) (int, error) {
	val, err := h.client.rdb.Get(ctx, historyKey(address)).Result()
	switch {
	case err == nil:
		if n, convErr := strconv.Atoi(val); convErr == nil {
			return min(n, limit), nil
		}
	case !errors.Is(err, redis.Nil):
		h.log.Warn("History cache read failed", "address", address, "error", err)
	}

	n, err := h.next.HistoryCount(ctx, address, limit)
	if err != nil {
		return 0, err
	}

	if n > 1 {
		if err := h.client.rdb.Set(ctx, historyKey(address), n, h.ttl).Err(); err != nil {
			h.log.Warn("History cache write failed", "address", address, "error", err)
		}
	}
	return n, nil
}
