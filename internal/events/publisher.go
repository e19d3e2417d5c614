// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package events

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tasksync/internal/config"
	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/metrics"
	"github.com/tomtom215/tasksync/internal/models"
)

// DefaultQueueSize bounds events waiting to be published.
const DefaultQueueSize = 1024

const breakerName = "events-publish"

// Publisher queues task events and publishes them in order. It implements
// tracker.Emitter; Serve must be running for events to leave the queue.
type Publisher struct {
	pub     message.Publisher
	topic   string
	breaker *gobreaker.CircuitBreaker[interface{}]
	queue   chan models.TaskEvent
}

// NewPublisher wraps pub with an ordered queue and a circuit breaker.
func NewPublisher(pub message.Publisher, cfg config.EventsConfig) *Publisher {
	return &Publisher{
		pub:     pub,
		topic:   cfg.Topic,
		breaker: NewCircuitBreaker(breakerName, cfg.BreakerFailures, cfg.BreakerTimeout),
		queue:   make(chan models.TaskEvent, DefaultQueueSize),
	}
}

// NewCircuitBreaker opens after failures consecutive errors and probes
// again after timeout.
func NewCircuitBreaker(name string, failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[interface{}] {
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.RecordBreakerState(name, from.String(), to.String(), int(to))
		},
	}
	return gobreaker.NewCircuitBreaker[interface{}](settings)
}

// Emit enqueues ev without blocking. A full queue drops the event.
func (p *Publisher) Emit(ctx context.Context, ev models.TaskEvent) {
	select {
	case p.queue <- ev:
	default:
		metrics.EventsPublishFailures.WithLabelValues("queue_full").Inc()
		logging.Ctx(ctx).Error().Str("event_type", string(ev.Type)).Str("task_id", ev.TaskID).
			Msg("Event queue full, dropping task event")
	}
}

// Serve publishes queued events until ctx is done, then drains what is
// left.
func (p *Publisher) Serve(ctx context.Context) error {
	for {
		select {
		case ev := <-p.queue:
			p.publish(ev)
		case <-ctx.Done():
			p.drain()
			return ctx.Err()
		}
	}
}

func (p *Publisher) drain() {
	for {
		select {
		case ev := <-p.queue:
			p.publish(ev)
		default:
			return
		}
	}
}

func (p *Publisher) publish(ev models.TaskEvent) {
	msg, err := Encode(ev)
	if err != nil {
		metrics.EventsPublishFailures.WithLabelValues("encode").Inc()
		logging.Error().Err(err).Str("task_id", ev.TaskID).Msg("Failed to encode task event")
		return
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.pub.Publish(p.topic, msg)
	})
	switch {
	case err == nil:
		metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EventsPublishFailures.WithLabelValues("circuit_open").Inc()
		logging.Warn().Str("task_id", ev.TaskID).Msg("Circuit open, dropping task event")
	default:
		metrics.EventsPublishFailures.WithLabelValues("error").Inc()
		logging.Error().Err(err).Str("task_id", ev.TaskID).Msg("Failed to publish task event")
	}
}

// BreakerState reports the publish breaker state for health output.
func (p *Publisher) BreakerState() string {
	return p.breaker.State().String()
}
