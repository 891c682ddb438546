// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield keeps log attribute keys consistent across packages.
package slogfield

import (
	"log/slog"
	"net"
	"time"
)

// Addr returns an slog.Attr for a network address. A nil
// address is logged as an empty string.
func Addr(key string, a net.Addr) slog.Attr {
	if a == nil {
		return slog.String(key, "")
	}
	return slog.String(key, a.String())
}

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns the "error" slog.Attr.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// Int returns an slog.Attr for an int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Status returns the "status" slog.Attr for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}
