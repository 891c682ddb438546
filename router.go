// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package picoserve

import "slices"

// Outcome is the kind of result produced by [Router.Resolve].
type Outcome int

const (
	// NotFound means no registration has the request path.
	NotFound Outcome = iota

	// MethodNotAllowed means the path is registered but none of its
	// registrations accept the request method.
	MethodNotAllowed

	// Matched means a registration accepts both path and method.
	Matched
)

// String implements the [fmt.Stringer] interface.
func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case MethodNotAllowed:
		return "method not allowed"
	default:
		return "not found"
	}
}

// Resolution is the result of resolving a request path and method.
type Resolution struct {
	Outcome Outcome

	// Registration is only set when Outcome is Matched.
	Registration Registration

	// Allow is the union of methods accepted at the path.
	// It is only set when Outcome is MethodNotAllowed.
	Allow []string
}

// Router resolves requests to registrations. It never mutates its
// registrations so it is safe for concurrent use.
type Router struct {
	registrations []Registration
}

// NewRouter returns a Router over the given registrations.
// The order of regs is the resolution order.
func NewRouter(regs []Registration) *Router {
	return &Router{
		registrations: slices.Clone(regs),
	}
}

// Resolve finds the first registration, in registration order, which
// accepts the path and method.
func (r *Router) Resolve(path, method string) Resolution {
	var (
		pathExists bool
		allow      []string
	)
	for _, reg := range r.registrations {
		if reg.path != path {
			continue
		}
		if reg.methods.Contains(method) {
			return Resolution{
				Outcome:      Matched,
				Registration: reg,
			}
		}

		pathExists = true
		for _, m := range reg.methods.methods {
			if slices.Contains(allow, m) {
				continue
			}
			allow = append(allow, m)
		}
	}

	if !pathExists {
		return Resolution{Outcome: NotFound}
	}
	return Resolution{
		Outcome: MethodNotAllowed,
		Allow:   allow,
	}
}
