package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	Partitions int    `mapstructure:"partitions"`
}

// Config holds the configuration for event publishing.
type Config struct {
	Driver string      `mapstructure:"driver"` // "none", "redis", "kafka"
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

// NewPublisher builds the publisher selected by cfg.Driver. The redis
// driver reuses the caller's client; it may be nil for other drivers.
func NewPublisher(cfg Config, redisClient *redis.Client) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return NopPublisher{}, nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis event driver requires a redis client")
		}
		return NewRedisPublisher(redisClient), nil
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka)
	default:
		return nil, fmt.Errorf("unsupported event driver: %s", cfg.Driver)
	}
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, _ string, _ *Event) error { return nil }
func (NopPublisher) Close() error                                        { return nil }
