package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"microsoc/internal/logger"
	"microsoc/internal/transform/attack"
	"microsoc/pkg/models"
)

// Config configures the Redis consumer.
type Config struct {
	Addr         string
	Password     string
	DB           int
	Key          string
	BlockTimeout time.Duration
}

// Consumer pops raw attack events from a Redis list.
type Consumer struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
}

// NewConsumer creates a Redis consumer for list-based queues.
func NewConsumer(cfg Config) (*Consumer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Consumer{
		client:       client,
		key:          cfg.Key,
		blockTimeout: cfg.BlockTimeout,
	}, nil
}

// Pop pops one payload from the list. Returns nil when the block timeout
// elapsed without a message.
func (c *Consumer) Pop(ctx context.Context) ([]byte, error) {
	res, err := c.client.BLPop(ctx, c.blockTimeout, c.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// Next blocks until a parseable raw event arrives or the context ends.
// Unparseable payloads are logged and skipped.
func (c *Consumer) Next(ctx context.Context) (models.RawEvent, error) {
	for {
		payload, err := c.Pop(ctx)
		if err != nil {
			return models.RawEvent{}, err
		}
		if payload == nil {
			if ctx.Err() != nil {
				return models.RawEvent{}, ctx.Err()
			}
			continue
		}

		event, err := attack.Parse(payload, time.Now().UTC())
		if err != nil {
			logger.Warnf("Skipping unparseable raw event: %v", err)
			continue
		}
		return event, nil
	}
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.client.Close()
}
