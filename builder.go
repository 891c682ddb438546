// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package picoserve

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/z5labs/picoserve/internal/noop"
)

const (
	// DefaultPort is the port a [Builder] binds to when none is given.
	DefaultPort = 9000

	// DefaultBacklog is the backlog a [Builder] uses when none is given.
	DefaultBacklog = 5
)

// Builder accumulates server configuration. Every method returns a new
// Builder, so a Builder can be shared and branched without the branches
// affecting each other.
//
// The zero value has no bind address and fails to build; use [NewBuilder].
type Builder struct {
	address       string
	backlog       int
	registrations []Registration
	middlewares   []Middleware
	executor      Executor
	logHandler    slog.Handler
	readTimeout   time.Duration
	writeTimeout  time.Duration
	drainTimeout  time.Duration
}

// NewBuilder returns a Builder bound to port 9000 on all interfaces
// with a backlog of 5.
func NewBuilder() Builder {
	return Builder{
		address:      net.JoinHostPort("", strconv.Itoa(DefaultPort)),
		backlog:      DefaultBacklog,
		readTimeout:  5 * time.Second,
		writeTimeout: 10 * time.Second,
		drainTimeout: 5 * time.Second,
	}
}

// Port binds to the given port on all interfaces.
func (b Builder) Port(port int) Builder {
	b.address = net.JoinHostPort("", strconv.Itoa(port))
	return b
}

// Address binds to the given "host:port" address.
func (b Builder) Address(addr string) Builder {
	b.address = addr
	return b
}

// Backlog sets the maximum number of pending connections queued by the
// listening socket. Zero uses the operating system default.
func (b Builder) Backlog(n int) Builder {
	b.backlog = n
	return b
}

// Handle appends the Registration. Registration order decides which
// processor wins when several accept the same request.
func (b Builder) Handle(reg Registration) Builder {
	b.registrations = append(slices.Clip(b.registrations), reg)
	return b
}

// HandleFunc is a helper for b.Handle(Handle(path, methods, f)).
func (b Builder) HandleFunc(path string, methods MethodSet, f func(context.Context, *Request) (*Response, error)) Builder {
	if f == nil {
		return b.Handle(Handle(path, methods, nil))
	}
	return b.Handle(Handle(path, methods, ProcessorFunc(f)))
}

// Get registers p for GET requests to path.
func (b Builder) Get(path string, p Processor) Builder {
	return b.Handle(Handle(path, Methods(http.MethodGet), p))
}

// Post registers p for POST requests to path.
func (b Builder) Post(path string, p Processor) Builder {
	return b.Handle(Handle(path, Methods(http.MethodPost), p))
}

// Put registers p for PUT requests to path.
func (b Builder) Put(path string, p Processor) Builder {
	return b.Handle(Handle(path, Methods(http.MethodPut), p))
}

// Delete registers p for DELETE requests to path.
func (b Builder) Delete(path string, p Processor) Builder {
	return b.Handle(Handle(path, Methods(http.MethodDelete), p))
}

// Head registers p for HEAD requests to path.
func (b Builder) Head(path string, p Processor) Builder {
	return b.Handle(Handle(path, Methods(http.MethodHead), p))
}

// Executor sets the execution context for request handling. Without one,
// every request is handled on the accept loop itself, one at a time.
func (b Builder) Executor(e Executor) Builder {
	b.executor = e
	return b
}

// Use appends middlewares which wrap every registered processor.
// The first middleware given is the outermost.
func (b Builder) Use(mws ...Middleware) Builder {
	b.middlewares = append(slices.Clip(b.middlewares), mws...)
	return b
}

// LogHandler sets the slog.Handler the server logs with.
func (b Builder) LogHandler(h slog.Handler) Builder {
	b.logHandler = h
	return b
}

// ReadTimeout sets the maximum duration for reading a request. Zero disables it.
func (b Builder) ReadTimeout(d time.Duration) Builder {
	b.readTimeout = d
	return b
}

// WriteTimeout sets the maximum duration for writing a response. Zero disables it.
func (b Builder) WriteTimeout(d time.Duration) Builder {
	b.writeTimeout = d
	return b
}

// DrainTimeout sets how long [Server.Stop] waits on in-flight requests.
func (b Builder) DrainTimeout(d time.Duration) Builder {
	b.drainTimeout = d
	return b
}

// Build validates the accumulated state and returns an immutable Configuration.
func (b Builder) Build() (Configuration, error) {
	err := validateAddress(b.address)
	if err != nil {
		return Configuration{}, err
	}
	if b.backlog < 0 {
		return Configuration{}, ConfigurationError{
			Field:  "backlog",
			Reason: fmt.Sprintf("must not be negative: %d", b.backlog),
		}
	}

	timeouts := []struct {
		field string
		d     time.Duration
	}{
		{field: "read timeout", d: b.readTimeout},
		{field: "write timeout", d: b.writeTimeout},
		{field: "drain timeout", d: b.drainTimeout},
	}
	for _, t := range timeouts {
		if t.d < 0 {
			return Configuration{}, ConfigurationError{
				Field:  t.field,
				Reason: fmt.Sprintf("must not be negative: %s", t.d),
			}
		}
	}

	regs := make([]Registration, len(b.registrations))
	for i, reg := range b.registrations {
		if reg.processor == nil {
			return Configuration{}, ConfigurationError{
				Field:  "registration",
				Reason: fmt.Sprintf("nil processor for path %q", reg.path),
			}
		}
		if !strings.HasPrefix(reg.path, "/") {
			return Configuration{}, ConfigurationError{
				Field:  "registration",
				Reason: fmt.Sprintf("path must start with '/': %q", reg.path),
			}
		}
		regs[i] = reg.wrap(b.middlewares)
	}

	logHandler := b.logHandler
	if logHandler == nil {
		logHandler = noop.LogHandler{}
	}

	cfg := Configuration{
		address:       b.address,
		backlog:       b.backlog,
		registrations: regs,
		executor:      b.executor,
		logHandler:    logHandler,
		readTimeout:   b.readTimeout,
		writeTimeout:  b.writeTimeout,
		drainTimeout:  b.drainTimeout,
	}
	return cfg, nil
}

func validateAddress(addr string) error {
	if len(addr) == 0 {
		return ConfigurationError{Field: "address", Reason: "bind address is not set"}
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return ConfigurationError{Field: "address", Reason: err.Error()}
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return ConfigurationError{
			Field:  "address",
			Reason: fmt.Sprintf("invalid port: %q", port),
		}
	}
	return nil
}
