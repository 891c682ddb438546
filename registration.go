// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package picoserve

import "context"

// Processor represents the handler logic invoked for a matched request.
type Processor interface {
	Process(context.Context, *Request) (*Response, error)
}

// ProcessorFunc is a functional implementation of the [Processor] interface.
type ProcessorFunc func(context.Context, *Request) (*Response, error)

// Process implements the [Processor] interface.
func (f ProcessorFunc) Process(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware decorates a [Processor].
type Middleware func(Processor) Processor

// Registration associates a path and a set of accepted methods
// with a [Processor].
type Registration struct {
	path      string
	methods   MethodSet
	processor Processor
}

// Handle returns a Registration for the given path, methods and processor.
func Handle(path string, methods MethodSet, p Processor) Registration {
	return Registration{
		path:      path,
		methods:   methods,
		processor: p,
	}
}

// Path returns the exact path this Registration matches.
func (r Registration) Path() string {
	return r.path
}

// Methods returns the methods this Registration accepts.
func (r Registration) Methods() MethodSet {
	return r.methods
}

// Processor returns the registered Processor.
func (r Registration) Processor() Processor {
	return r.processor
}

// Matches reports whether the request path and method are accepted.
func (r Registration) Matches(path, method string) bool {
	return r.path == path && r.methods.Contains(method)
}

func (r Registration) wrap(mws []Middleware) Registration {
	p := r.processor
	for i := len(mws) - 1; i >= 0; i-- {
		p = mws[i](p)
	}
	r.processor = p
	return r
}
