// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package config

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MinJWTSecretLength is enforced in production and warned about elsewhere.
const MinJWTSecretLength = 32

// Validate checks the configuration for errors. All problems are reported
// together so operators can fix them in one pass.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStore()...)
	errs = append(errs, c.validateSecurity()...)
	errs = append(errs, c.validateEvents()...)
	errs = append(errs, c.validateRealtime()...)

	return errors.Join(errs...)
}

func (c *Config) validateServer() []error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.request_timeout":  c.Server.RequestTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	return errs
}

func (c *Config) validateStore() []error {
	var errs []error
	switch c.Store.Backend {
	case StoreBackendBadger:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the badger backend"))
		}
	case StoreBackendMemory:
	case StoreBackendMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("store.mongo_uri (MONGODB_URI) is required for the mongo backend"))
		}
		if c.Store.MongoDatabase == "" {
			errs = append(errs, errors.New("store.mongo_database is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be badger, memory or mongo, got %q", c.Store.Backend))
	}
	if c.Store.OpTimeout <= 0 {
		errs = append(errs, errors.New("store.op_timeout must be positive"))
	}
	return errs
}

func (c *Config) validateSecurity() []error {
	var errs []error
	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("security.jwt_secret (JWT_SECRET) is required"))
	} else if c.Server.IsProduction() && len(c.Security.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("security.jwt_secret must be at least %d characters in production", MinJWTSecretLength))
	}
	if c.Security.TokenTTL <= 0 {
		errs = append(errs, errors.New("security.token_ttl must be positive"))
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("security.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 || c.Security.AuthRateLimitReqs <= 0 {
			errs = append(errs, errors.New("rate limits must be positive unless security.rate_limit_disabled is set"))
		}
		if c.Security.RateLimitWindow <= 0 {
			errs = append(errs, errors.New("security.rate_limit_window must be positive"))
		}
	}
	return errs
}

func (c *Config) validateEvents() []error {
	var errs []error
	switch c.Events.Backend {
	case EventsBackendMemory:
	case EventsBackendNATS:
		if c.Events.NATSURL == "" {
			errs = append(errs, errors.New("events.nats_url is required for the nats backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("events.backend must be memory or nats, got %q", c.Events.Backend))
	}
	if c.Events.Topic == "" {
		errs = append(errs, errors.New("events.topic is required"))
	}
	if c.Events.BreakerFailures == 0 {
		errs = append(errs, errors.New("events.breaker_failures must be at least 1"))
	}
	return errs
}

func (c *Config) validateRealtime() []error {
	var errs []error
	if c.Realtime.SendBuffer <= 0 {
		errs = append(errs, errors.New("realtime.send_buffer must be positive"))
	}
	if c.Realtime.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("realtime.max_message_size must be positive"))
	}
	return errs
}
