// Package redis provides the Redis-backed cache and token record store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/tokenforge/internal/config"
	"github.com/turtacn/tokenforge/pkg/logger"
)

// Connection manages the Redis client lifecycle. A single address yields a
// standalone client, multiple addresses a cluster client; go-redis selects
// the mode through UniversalClient.
type Connection struct {
	cfg    config.RedisConfig
	client redis.UniversalClient
	log    logger.Logger
}

// NewConnection creates a connection manager. Connect must be called before
// Client is usable.
func NewConnection(cfg config.RedisConfig, log logger.Logger) *Connection {
	return &Connection{cfg: cfg, log: log.WithComponent("redis")}
}

// Connect establishes the client and verifies connectivity with a ping.
func (c *Connection) Connect(ctx context.Context) error {
	addrs := c.cfg.Addresses
	if len(addrs) == 0 {
		addrs = []string{"localhost:6379"}
	}

	c.client = redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		Password:     c.cfg.Password,
		DB:           c.cfg.DB,
		PoolSize:     c.cfg.PoolSize,
		MinIdleConns: c.cfg.MinIdleConns,
		DialTimeout:  time.Duration(c.cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(c.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(c.cfg.WriteTimeout) * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.client.Ping(pingCtx).Err(); err != nil {
		_ = c.client.Close()
		c.client = nil
		return fmt.Errorf("redis ping failed: %w", err)
	}

	c.log.Info(ctx, "Redis connection established",
		logger.Any("addrs", addrs),
		logger.Int("pool_size", c.cfg.PoolSize),
	)
	return nil
}

// Client returns the underlying client, or nil before Connect.
func (c *Connection) Client() redis.UniversalClient {
	return c.client
}

// Ping checks server connectivity.
func (c *Connection) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis connection not initialized")
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the client and its pool.
func (c *Connection) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}
