// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Store backends.
const (
	StoreBackendBadger = "badger"
	StoreBackendMemory = "memory"
	StoreBackendMongo  = "mongo"
)

// Event bus backends.
const (
	EventsBackendMemory = "memory"
	EventsBackendNATS   = "nats"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Security SecurityConfig `koanf:"security"`
	Events   EventsConfig   `koanf:"events"`
	Realtime RealtimeConfig `koanf:"realtime"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"` // bound on every REST handler
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether production-only checks apply.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	// Backend is badger (durable, default), memory (badger in-memory) or mongo.
	Backend string `koanf:"backend"`

	// Path is the BadgerDB directory (badger backend only).
	Path string `koanf:"path"`

	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`

	// OpTimeout bounds each store transaction.
	OpTimeout time.Duration `koanf:"op_timeout"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// AuthRateLimitReqs applies to /api/auth/* per IP within RateLimitWindow.
	AuthRateLimitReqs int `koanf:"auth_rate_limit_reqs"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// EventsConfig configures the task event bus.
type EventsConfig struct {
	Backend string `koanf:"backend"`
	NATSURL string `koanf:"nats_url"`
	Topic   string `koanf:"topic"`

	// BreakerFailures is the number of consecutive publish failures that
	// opens the circuit; BreakerTimeout is how long it stays open.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// RealtimeConfig configures websocket sessions.
type RealtimeConfig struct {
	SendBuffer     int      `koanf:"send_buffer"`
	MaxMessageSize int64    `koanf:"max_message_size"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load is the entry point used by main.
func Load() (*Config, error) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
