// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package picoserve

import (
	"errors"
	"fmt"
)

// ConfigurationError occurs when [Builder.Build] is called
// with an invalid builder state.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Error implements the [builtin.error] interface.
func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid server configuration: %s: %s", e.Field, e.Reason)
}

// BindError occurs when the listening socket could not be opened.
type BindError struct {
	Addr  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BindError) Error() string {
	return fmt.Sprintf("failed to bind to %s: %s", e.Addr, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BindError) Unwrap() error {
	return e.Cause
}

// IllegalStateError occurs when a lifecycle method is called
// while the [Server] is in a state which does not allow it.
type IllegalStateError struct {
	Op    string
	State State
}

// Error implements the [builtin.error] interface.
func (e IllegalStateError) Error() string {
	return fmt.Sprintf("cannot %s server while it is %s", e.Op, e.State)
}

// ProcessorError occurs when a registered [Processor] returns an error,
// returns a nil [Response] or panics. It is logged and the client is
// answered with a 500.
type ProcessorError struct {
	Method string
	Path   string
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e ProcessorError) Error() string {
	return fmt.Sprintf("processor for %s %s failed: %s", e.Method, e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ProcessorError) Unwrap() error {
	return e.Cause
}

// ErrNilResponse is the cause of a [ProcessorError] when a
// processor returns neither a response nor an error.
var ErrNilResponse = errors.New("processor returned a nil response")
