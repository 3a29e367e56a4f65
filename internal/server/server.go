package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/docserve/internal/index"
)

// DefaultGrace is the drain period used when [Config.Grace] is zero.
const DefaultGrace = 5 * time.Second

// Config is the immutable serving configuration for one server lifetime.
//
// A Config is built once per build cycle and handed to [Start]; it is never
// mutated afterwards. Restarting the server always means a fresh Config and
// a fresh [Handle].
type Config struct {
	// DocRoot is the documentation root directory.
	DocRoot string

	// Units are listed on the index page in this order.
	Units []index.Unit

	// Addr is the TCP address to bind, e.g. "127.0.0.1:8000".
	Addr string

	// Grace bounds how long [Handle.Shutdown] waits for in-flight requests.
	// Zero means [DefaultGrace].
	Grace time.Duration
}

// State is the lifecycle state of a [Handle].
type State int32

const (
	// StateStopped means the listener is closed and no requests are in flight.
	StateStopped State = iota

	// StateRunning means the listener is accepting connections.
	StateRunning

	// StateDraining means shutdown was requested and in-flight requests are
	// being allowed to finish.
	StateDraining
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// BindError is returned by [Start] when the listener cannot be bound.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind to %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Handle owns one running HTTP listener.
//
// The lifecycle is Running → Draining → Stopped and is never reversed; a
// stopped Handle cannot be restarted. All methods are safe for concurrent
// use.
type Handle struct {
	httpServer *http.Server
	listener   net.Listener
	grace      time.Duration
	logger     *slog.Logger

	state    atomic.Int32
	served   chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// Start binds cfg.Addr and serves the documentation handler on it in a
// background goroutine.
//
// Start returns once the listener is bound, so a nil error means the
// address is owned by the returned Handle. A bind failure is returned as a
// [*BindError] and nothing is left running.
func Start(cfg Config, logger *slog.Logger) (*Handle, error) {
	resolver, err := NewResolver(cfg.DocRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid documentation root %q: %w", cfg.DocRoot, err)
	}

	handler := NewHandler(resolver, cfg.Units, logger)
	return listenAndServe(cfg.Addr, handler, cfg.Grace, logger)
}

// listenAndServe creates the listener first to verify the address
// synchronously, then serves h on it.
func listenAndServe(addr string, h http.Handler, grace time.Duration, logger *slog.Logger) (*Handle, error) {
	if grace <= 0 {
		grace = DefaultGrace
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}

	hd := &Handle{
		httpServer: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: ln,
		grace:    grace,
		logger:   logger,
		served:   make(chan struct{}),
	}
	hd.state.Store(int32(StateRunning))

	go func() {
		defer close(hd.served)
		if err := hd.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hd.logger.Error("http server error", "addr", addr, "error", err)
		}
	}()

	return hd, nil
}

// Addr returns the bound listener address. Useful when Config.Addr used
// port 0.
func (h *Handle) Addr() string {
	return h.listener.Addr().String()
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Done returns a channel closed once the serve goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.served
}

// Shutdown stops accepting connections and waits for in-flight requests to
// complete, bounded by the grace period.
//
// When the grace period elapses first, remaining connections are closed
// forcibly; a response that is still being written at that point is cut
// off. Shutdown returns only after the listener is closed and the serve
// goroutine has exited, so the address can be bound again immediately.
// Calling Shutdown more than once returns the first result.
func (h *Handle) Shutdown() error {
	h.stopOnce.Do(func() {
		h.state.Store(int32(StateDraining))

		ctx, cancel := context.WithTimeout(context.Background(), h.grace)
		defer cancel()

		if err := h.httpServer.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown timed out, forcing close",
				"grace", h.grace.String(),
				"error", err,
			)
			if cerr := h.httpServer.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			h.stopErr = err
		}

		<-h.served
		h.state.Store(int32(StateStopped))
	})
	return h.stopErr
}
