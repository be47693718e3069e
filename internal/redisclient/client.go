package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meal-order-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const menuCacheKey = "menu:all"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
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

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetMenu returns the cached menu listing, or ok=false on a miss
func (c *Client) GetMenu(ctx context.Context) ([]models.MenuItem, bool, error) {
	data, err := c.rdb.Get(ctx, menuCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []models.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached menu: %w", err)
	}
	return items, true, nil
}

// SetMenu caches the menu listing with a TTL
func (c *Client) SetMenu(ctx context.Context, items []models.MenuItem, ttl time.Duration) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode menu: %w", err)
	}
	return c.rdb.Set(ctx, menuCacheKey, data, ttl).Err()
}

// InvalidateMenu drops the cached menu listing. Called after any
// catalog write, including the stock decrements of order placement.
func (c *Client) InvalidateMenu(ctx context.Context) error {
	return c.rdb.Del(ctx, menuCacheKey).Err()
}
