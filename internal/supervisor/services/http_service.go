// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tomtom215/tasksync/internal/logging"
)

// DefaultShutdownTimeout bounds graceful shutdown when none is configured.
const DefaultShutdownTimeout = 10 * time.Second

// APIServer is the part of *http.Server the service drives.
type APIServer interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// HTTPServerService serves the REST API and the /api/ws upgrade endpoint
// under the api layer of the supervisor tree.
//
// The listener is bound inside Serve, so a port conflict is reported as a
// service failure and retried with suture's backoff. Websocket connections
// are hijacked and therefore not waited for by Shutdown; the hub closes
// them when the realtime layer stops.
type HTTPServerService struct {
	server          APIServer
	addr            string
	shutdownTimeout time.Duration

	mu        sync.Mutex
	bound     string
	ready     chan struct{}
	readyOnce sync.Once
}

// NewHTTPServerService serves server on server.Addr. A non-positive
// shutdownTimeout means DefaultShutdownTimeout.
func NewHTTPServerService(server *http.Server, shutdownTimeout time.Duration) *HTTPServerService {
	return newHTTPServerService(server, server.Addr, shutdownTimeout)
}

func newHTTPServerService(server APIServer, addr string, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	if addr == "" {
		addr = ":http"
	}
	return &HTTPServerService{
		server:          server,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the listener has been bound for the first time.
func (h *HTTPServerService) Ready() <-chan struct{} {
	return h.ready
}

// Addr returns the bound listen address, or "" before the first bind.
// With port 0 in the configured address this is the port actually chosen.
func (h *HTTPServerService) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bound
}

// Serve implements suture.Service. It returns ctx.Err() after a graceful
// shutdown and an error when binding or serving fails.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", h.addr, err)
	}
	h.mu.Lock()
	h.bound = ln.Addr().String()
	h.mu.Unlock()
	h.readyOnce.Do(func() { close(h.ready) })
	logging.Info().Str("addr", ln.Addr().String()).Msg("API server listening")

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, failed := <-errCh:
		if failed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return errors.New("api server stopped unexpectedly")

	case <-ctx.Done():
		// ctx is already done; shutdown needs its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		logging.Info().Dur("timeout", h.shutdownTimeout).Msg("Draining API requests")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPServerService) String() string {
	return "http-server"
}
