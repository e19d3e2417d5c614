// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package services

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/tasksync/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "json", Output: io.Discard})
}

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*NamedService)(nil)
)

// fakeAPIServer accepts nothing; Serve blocks until Shutdown unless
// serveErr is set.
type fakeAPIServer struct {
	serveErr    error
	shutdownErr error
	serves      atomic.Int32
	shutdowns   atomic.Int32
	started     chan struct{}
	stop        chan struct{}
}

func newFakeAPIServer() *fakeAPIServer {
	return &fakeAPIServer{started: make(chan struct{}, 1), stop: make(chan struct{})}
}

func (f *fakeAPIServer) Serve(l net.Listener) error {
	defer l.Close()
	f.serves.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.serveErr != nil {
		return f.serveErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeAPIServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return f.shutdownErr
}

func loopback(t *testing.T, server APIServer) *HTTPServerService {
	t.Helper()
	return newHTTPServerService(server, "127.0.0.1:0", time.Second)
}

func serveAsync(ctx context.Context, svc *HTTPServerService) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	return errCh
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestNewHTTPServerService(t *testing.T) {
	tests := []struct {
		name        string
		server      *http.Server
		timeout     time.Duration
		wantAddr    string
		wantTimeout time.Duration
	}{
		{
			name:        "configured",
			server:      &http.Server{Addr: ":5000"},
			timeout:     3 * time.Second,
			wantAddr:    ":5000",
			wantTimeout: 3 * time.Second,
		},
		{
			name:        "zero timeout",
			server:      &http.Server{Addr: ":5000"},
			wantAddr:    ":5000",
			wantTimeout: DefaultShutdownTimeout,
		},
		{
			name:        "negative timeout and empty addr",
			server:      &http.Server{},
			timeout:     -time.Second,
			wantAddr:    ":http",
			wantTimeout: DefaultShutdownTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHTTPServerService(tt.server, tt.timeout)
			if svc.addr != tt.wantAddr || svc.shutdownTimeout != tt.wantTimeout {
				t.Errorf("addr=%q timeout=%v, want %q %v", svc.addr, svc.shutdownTimeout, tt.wantAddr, tt.wantTimeout)
			}
			if svc.Addr() != "" {
				t.Errorf("Addr() before Serve = %q", svc.Addr())
			}
			if svc.String() != "http-server" {
				t.Errorf("String() = %q", svc.String())
			}
		})
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		server := newFakeAPIServer()
		svc := loopback(t, server)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(ctx, svc)
		waitClosed(t, svc.Ready(), "bind")
		waitClosed(t, server.started, "serve")
		if _, port, _ := net.SplitHostPort(svc.Addr()); port == "" || port == "0" {
			t.Errorf("Addr() = %q, want the chosen port", svc.Addr())
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancel")
		}
		if server.serves.Load() != 1 || server.shutdowns.Load() != 1 {
			t.Errorf("serves=%d shutdowns=%d, want 1/1", server.serves.Load(), server.shutdowns.Load())
		}
	})

	t.Run("port in use", func(t *testing.T) {
		taken, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		defer taken.Close()

		server := newFakeAPIServer()
		svc := newHTTPServerService(server, taken.Addr().String(), time.Second)
		err = svc.Serve(context.Background())
		if err == nil || !strings.Contains(err.Error(), "listen on") {
			t.Errorf("Serve() = %v, want a listen error", err)
		}
		if server.serves.Load() != 0 {
			t.Error("Serve was called without a listener")
		}
	})

	t.Run("serve failure", func(t *testing.T) {
		serveErr := errors.New("accept: too many open files")
		server := newFakeAPIServer()
		server.serveErr = serveErr

		err := loopback(t, server).Serve(context.Background())
		if !errors.Is(err, serveErr) {
			t.Errorf("Serve() = %v, want %v", err, serveErr)
		}
	})

	t.Run("shutdown failure", func(t *testing.T) {
		shutdownErr := errors.New("context deadline exceeded")
		server := newFakeAPIServer()
		server.shutdownErr = shutdownErr
		svc := loopback(t, server)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(ctx, svc)
		waitClosed(t, server.started, "serve")
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, shutdownErr) {
				t.Errorf("Serve() = %v, want %v", err, shutdownErr)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
	})
}

// A real http.Server on an ephemeral port serves requests and stops cleanly.
func TestHTTPServerService_RealServer(t *testing.T) {
	server := &http.Server{
		Addr: "127.0.0.1:0",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		ReadHeaderTimeout: time.Second,
	}
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(ctx, svc)
	waitClosed(t, svc.Ready(), "bind")

	resp, err := http.Get("http://" + svc.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
}

// Under a supervisor a failed bind is retried until the port frees up.
func TestHTTPServerService_WithSupervisor(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := taken.Addr().String()

	server := newFakeAPIServer()
	svc := newHTTPServerService(server, addr, time.Second)

	sup := suture.New("api-layer", suture.Spec{
		FailureThreshold: 100,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	time.Sleep(50 * time.Millisecond)
	if server.serves.Load() != 0 {
		t.Fatal("served while the port was taken")
	}
	_ = taken.Close()

	waitClosed(t, server.started, "serve after the port was released")
	if svc.Addr() != addr {
		t.Errorf("Addr() = %q, want %q", svc.Addr(), addr)
	}
	cancel()
	<-errCh

	if server.shutdowns.Load() != 1 {
		t.Errorf("shutdowns = %d, want 1", server.shutdowns.Load())
	}
}
