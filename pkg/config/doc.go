// Package config loads typed configuration structs from environment
// variables, optionally seeded from .env files.
//
// Configuration structs declare their sources with `env` field tags:
//
//	type QueueConfig struct {
//	    BatchSize    int           `env:"QUEUE_BATCH_SIZE" envDefault:"5"`
//	    MaxQueueSize int           `env:"QUEUE_MAX_SIZE" envDefault:"1000"`
//	    RateLimitWait time.Duration `env:"QUEUE_RATE_WAIT" envDefault:"60s"`
//	}
//
//	cfg, err := config.Load[QueueConfig]()
package config
