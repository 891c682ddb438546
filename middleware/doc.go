// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package middleware provides common [picoserve.Middleware]s.
//
// Middlewares only ever wrap registered processors. Responses the
// server synthesizes itself (404, 405, 500) never pass through them.
package middleware
