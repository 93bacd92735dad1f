package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// authUserTTL keeps cached users short-lived so a deleted account stops
// authenticating within seconds, not until token expiry.
const authUserTTL = 30 * time.Second

// Client wraps the Redis connection.
type Client struct {
	rdb *goredis.Client
}

// NewClient connects to Redis with retry.
func NewClient(addr string) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(ctx).Err(); err == nil {
			cancel()
			log.Println("Connected to Redis")
			return &Client{rdb: rdb}, nil
		}
		cancel()
		log.Printf("Waiting for Redis... (%d/20)", i+1)
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("redis: failed to connect after 20 attempts")
}

// CacheAuthUser stores a JSON snapshot of a user for the auth middleware.
func (c *Client) CacheAuthUser(ctx context.Context, userID string, user any) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, "auth:user:"+userID, data, authUserTTL).Err()
}

// GetAuthUser loads a cached user snapshot into dest. The boolean is
// false on a cache miss.
func (c *Client) GetAuthUser(ctx context.Context, userID string, dest any) (bool, error) {
	data, err := c.rdb.Get(ctx, "auth:user:"+userID).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

// DropAuthUser evicts a cached user, e.g. after a password reset.
func (c *Client) DropAuthUser(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, "auth:user:"+userID).Err()
}

// CacheTrip stores trip data in a hash with TTL.
func (c *Client) CacheTrip(ctx context.Context, tripID string, data map[string]string) error {
	key := "trip:" + tripID
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, 24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// GetCachedTrip retrieves a cached trip hash.
func (c *Client) GetCachedTrip(ctx context.Context, tripID string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, "trip:"+tripID).Result()
}

// Close tears down the Redis connection.
func (c *Client) Close() error { return c.rdb.Close() }
