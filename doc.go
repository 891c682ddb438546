// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package picoserve is a minimal embeddable HTTP/1.1 server.
//
// A [Builder] accumulates the bind address, listen backlog, route
// registrations, middlewares and [Executor] and validates them into an
// immutable [Configuration]. A [Server] created from a Configuration binds
// one listening socket, accepts connections on a single accept loop and
// hands each connection to its Executor. Every connection carries exactly
// one request, which is resolved by a [Router] to the first registration
// accepting its path and method.
//
// Resolution failures are answered by the server itself: 404 when no
// registration has the path and 405, with an Allow header, when the path
// exists but no registration accepts the method. A processor which fails,
// panics or returns no response is answered with 500, and the server keeps
// serving.
package picoserve
