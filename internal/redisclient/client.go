package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/adjust_available.lua
var adjustAvailableScript string

type Client struct {
	rdb          *redis.Client
	adjustScript *redis.Script
}

// NewClient creates a new Redis client with the Lua script loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:          rdb,
		adjustScript: redis.NewScript(adjustAvailableScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// InitAvailability seeds the availability cache for a book
func (c *Client) InitAvailability(ctx context.Context, bookID int64, available, total int) error {
	key := fmt.Sprintf("availability:%d", bookID)

	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, "available", available)
	pipe.HSet(ctx, key, "total", total)

	_, err := pipe.Exec(ctx)
	return err
}

// AdjustAvailability atomically shifts the cached available count by delta,
// clamped to [0, total]. Returns the updated count, or -1 when the book is
// not cached. The database is the source of truth; this only keeps the
// read cache in step with issue/return without another DB round trip.
func (c *Client) AdjustAvailability(ctx context.Context, bookID int64, delta int) (int, error) {
	key := fmt.Sprintf("availability:%d", bookID)

	result, err := c.adjustScript.Run(ctx, c.rdb, []string{key}, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("adjust availability script failed: %w", err)
	}

	updated, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type")
	}

	return int(updated), nil
}

// GetAvailability retrieves the cached availability for a book
func (c *Client) GetAvailability(ctx context.Context, bookID int64) (available, total int, err error) {
	key := fmt.Sprintf("availability:%d", bookID)

	result, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	if len(result) == 0 {
		return 0, 0, fmt.Errorf("availability not cached for book %d", bookID)
	}

	available, _ = strconv.Atoi(result["available"])
	total, _ = strconv.Atoi(result["total"])

	return available, total, nil
}

// CachePendingTotal caches a borrower's pending fine total
func (c *Client) CachePendingTotal(ctx context.Context, userID int64, total float64, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("fines:pending:%d", userID), total, ttl).Err()
}

// GetPendingTotal retrieves a cached pending fine total; ok is false on a miss
func (c *Client) GetPendingTotal(ctx context.Context, userID int64) (total float64, ok bool, err error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("fines:pending:%d", userID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	total, err = strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, err
	}
	return total, true, nil
}

// InvalidatePendingTotal drops a borrower's cached pending fine total
func (c *Client) InvalidatePendingTotal(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, fmt.Sprintf("fines:pending:%d", userID)).Err()
}

// SetIdempotentResult stores the transaction created for an idempotency key
func (c *Client) SetIdempotentResult(ctx context.Context, key string, transactionID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), transactionID, ttl).Err()
}

// GetIdempotentResult retrieves the transaction recorded for an idempotency
// key; ok is false when the key has not been seen
func (c *Client) GetIdempotentResult(ctx context.Context, key string) (transactionID int64, ok bool, err error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	transactionID, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return transactionID, true, nil
}
