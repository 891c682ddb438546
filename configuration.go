// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package picoserve

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// Executor runs the handling of accepted connections.
//
// Execute must either run the task or return a non-nil error,
// in which case the task must never be run.
type Executor interface {
	Execute(context.Context, func()) error
}

// Configuration is the immutable result of [Builder.Build].
type Configuration struct {
	address       string
	backlog       int
	registrations []Registration
	executor      Executor
	logHandler    slog.Handler
	readTimeout   time.Duration
	writeTimeout  time.Duration
	drainTimeout  time.Duration
}

// Address returns the bind address in "host:port" form.
func (c Configuration) Address() string {
	return c.address
}

// Backlog returns the maximum number of pending connections.
// Zero means the operating system default.
func (c Configuration) Backlog() int {
	return c.backlog
}

// Registrations returns a copy of the registrations in the order they were made.
func (c Configuration) Registrations() []Registration {
	return slices.Clone(c.registrations)
}

// Executor returns the configured Executor, or nil if requests
// are processed inline on the accept loop.
func (c Configuration) Executor() Executor {
	return c.executor
}

// ReadTimeout returns the maximum duration for reading a request.
func (c Configuration) ReadTimeout() time.Duration {
	return c.readTimeout
}

// WriteTimeout returns the maximum duration for writing a response.
func (c Configuration) WriteTimeout() time.Duration {
	return c.writeTimeout
}

// DrainTimeout returns how long [Server.Stop] waits on in-flight requests.
func (c Configuration) DrainTimeout() time.Duration {
	return c.drainTimeout
}
