// Package redis connects the shared rate limit store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"contractdesk/internal/platform/config"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
)

// Client is a go-redis client that was reachable when it was built.
type Client struct {
	*redis.Client
}

// New connects to cfg.RedisURL and pings it. Callers only build a client when
// the limiter is configured for redis storage.
func New(ctx context.Context, cfg config.RateLimit) (*Client, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("rate limit redis url is empty")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout

	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

// Health pings the server within dialTimeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}
