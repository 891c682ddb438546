// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"context"
	"net/http"

	"github.com/z5labs/picoserve"

	"github.com/google/uuid"
)

// RequestIDHeader is the header a request id is read from and echoed in.
const RequestIDHeader = "X-Request-Id"

type contextKey string

const requestIDKey = contextKey("requestID")

// RequestIDFromContext returns the request id stored by [RequestID].
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// RequestID stores a request id in the request context and echoes it
// in the response. The client supplied X-Request-Id is kept when present,
// otherwise a random UUID is generated.
func RequestID() picoserve.Middleware {
	return func(next picoserve.Processor) picoserve.Processor {
		return picoserve.ProcessorFunc(func(ctx context.Context, req *picoserve.Request) (*picoserve.Response, error) {
			id := req.Header.Get(RequestIDHeader)
			if len(id) == 0 {
				id = uuid.NewString()
			}

			ctx = context.WithValue(ctx, requestIDKey, id)
			resp, err := next.Process(ctx, req.WithContext(ctx))
			if resp != nil {
				if resp.Header == nil {
					resp.Header = make(http.Header)
				}
				resp.Header.Set(RequestIDHeader, id)
			}
			return resp, err
		})
	}
}
