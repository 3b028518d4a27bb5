package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Optional backends (Redis,
// Postgres, Kafka) stay disabled when their settings are empty; the server
// falls back to in-memory equivalents.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration

	Redis    Redis
	Postgres Postgres
	Kafka    Kafka
}

// Redis holds connection settings for the Redis-backed record store.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres holds connection settings for the Postgres-backed record store.
type Postgres struct {
	URL string
}

// Kafka holds producer settings for the notification stream.
type Kafka struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("SMARTCRED_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var brokers []string
	if raw := os.Getenv("SMARTCRED_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:            addr,
		ShutdownTimeout: 10 * time.Second,
		Redis: Redis{
			URL:          os.Getenv("SMARTCRED_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: Postgres{
			URL: os.Getenv("SMARTCRED_POSTGRES_URL"),
		},
		Kafka: Kafka{
			Brokers: brokers,
			Topic:   os.Getenv("SMARTCRED_KAFKA_TOPIC"),
		},
	}
}
