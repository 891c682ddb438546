// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/z5labs/picoserve"

	"github.com/sony/gobreaker"
)

type serverStatusError struct {
	resp *picoserve.Response
}

func (e serverStatusError) Error() string {
	return fmt.Sprintf("processor responded with status %d", e.resp.Status)
}

// CircuitBreaker counts processor errors and 5xx responses as failures.
// While the breaker is open the processor is skipped and the client
// receives 503 Service Unavailable. Every wrapped processor gets its
// own breaker.
func CircuitBreaker(st gobreaker.Settings) picoserve.Middleware {
	return func(next picoserve.Processor) picoserve.Processor {
		cb := gobreaker.NewCircuitBreaker(st)

		return picoserve.ProcessorFunc(func(ctx context.Context, req *picoserve.Request) (*picoserve.Response, error) {
			v, err := cb.Execute(func() (interface{}, error) {
				resp, err := next.Process(ctx, req)
				if err != nil {
					return nil, err
				}
				if resp != nil && resp.Status >= http.StatusInternalServerError {
					return nil, serverStatusError{resp: resp}
				}
				return resp, nil
			})

			var serr serverStatusError
			switch {
			case err == nil:
				resp, _ := v.(*picoserve.Response)
				return resp, nil
			case errors.As(err, &serr):
				return serr.resp, nil
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				resp := picoserve.Status(http.StatusServiceUnavailable)
				return resp, nil
			default:
				return nil, err
			}
		})
	}
}
