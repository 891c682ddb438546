// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package picoserve

import (
	"slices"
	"strings"
)

// MethodSet describes which HTTP methods a Registration accepts.
//
// A MethodSet is either the Any case, which accepts every method, or
// a specific set of methods. A specific set with no methods accepts
// nothing and is not the same as Any.
type MethodSet struct {
	any     bool
	methods []string
}

// AnyMethod returns a MethodSet which accepts every HTTP method.
func AnyMethod() MethodSet {
	return MethodSet{any: true}
}

// Methods returns a MethodSet which only accepts the given methods.
// Duplicates are dropped and the first-seen order is kept.
func Methods(methods ...string) MethodSet {
	ms := make([]string, 0, len(methods))
	for _, m := range methods {
		if slices.Contains(ms, m) {
			continue
		}
		ms = append(ms, m)
	}
	return MethodSet{methods: ms}
}

// ParseMethods parses a comma separated list of HTTP methods
// e.g. "GET,POST". Surrounding whitespace is ignored and empty
// entries are skipped. The single entry "*" parses to [AnyMethod].
func ParseMethods(s string) MethodSet {
	if strings.TrimSpace(s) == "*" {
		return AnyMethod()
	}

	var ms []string
	for _, m := range strings.Split(s, ",") {
		m = strings.TrimSpace(m)
		if len(m) == 0 {
			continue
		}
		ms = append(ms, m)
	}
	return Methods(ms...)
}

// Any reports whether the set accepts every method.
func (s MethodSet) Any() bool {
	return s.any
}

// Contains reports whether the given method is accepted.
func (s MethodSet) Contains(method string) bool {
	if s.any {
		return true
	}
	return slices.Contains(s.methods, method)
}

// List returns the specific methods of the set. It is always
// empty for the Any case.
func (s MethodSet) List() []string {
	return slices.Clone(s.methods)
}

// String implements the [fmt.Stringer] interface.
func (s MethodSet) String() string {
	if s.any {
		return "*"
	}
	return strings.Join(s.methods, ",")
}
