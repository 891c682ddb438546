// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/z5labs/picoserve"
	"github.com/z5labs/picoserve/internal/slogfield"
	"github.com/z5labs/picoserve/otelslog"
)

// redactedParams are query parameters whose values are never logged.
var redactedParams = []string{"password", "token"}

// LogRequest logs the method, path, query, status and duration of
// every processed request. Processor failures are logged by the
// server itself and are only passed through here.
func LogRequest(h slog.Handler) picoserve.Middleware {
	log := otelslog.New(h)

	return func(next picoserve.Processor) picoserve.Processor {
		return picoserve.ProcessorFunc(func(ctx context.Context, req *picoserve.Request) (*picoserve.Response, error) {
			start := time.Now()
			resp, err := next.Process(ctx, req)
			if err != nil {
				return resp, err
			}

			attrs := []any{
				slogfield.String("method", req.Method),
				slogfield.String("path", req.Path),
				slogfield.String("remote_addr", req.RemoteAddr),
				slogfield.Duration("duration", time.Since(start)),
			}
			if len(req.Query) > 0 {
				q := req.Query
				for _, name := range redactedParams {
					if q.Has(name) {
						q = cloneValues(q)
						q.Set(name, "xxxxxxx")
					}
				}
				attrs = append(attrs, slogfield.String("query", q.Encode()))
			}
			if id, ok := RequestIDFromContext(ctx); ok {
				attrs = append(attrs, slogfield.String("request_id", id))
			}
			if resp != nil {
				attrs = append(attrs, slogfield.Status(resp.Status))
			}

			log.InfoContext(ctx, "processed request", attrs...)
			return resp, nil
		})
	}
}

func cloneValues(q url.Values) url.Values {
	c := make(url.Values, len(q))
	for k, vs := range q {
		c[k] = append([]string(nil), vs...)
	}
	return c
}
