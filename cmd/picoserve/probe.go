// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/picoserve/internal/noop"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// UnhealthyStatusError is returned by the probe command for non 2xx responses.
type UnhealthyStatusError struct {
	URL    string
	Status int
}

// Error implements the error interface.
func (e UnhealthyStatusError) Error() string {
	return fmt.Sprintf("probe %s: unhealthy status: %d", e.URL, e.Status)
}

type probeFlags struct {
	retries int
	timeout time.Duration
	verbose bool
}

func newProbeCmd() *cobra.Command {
	var flags probeFlags

	cmd := &cobra.Command{
		Use:   "probe URL",
		Short: "GET a URL and fail unless it responds with a 2xx status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := noop.Logger()
			if flags.verbose {
				log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			}

			client := newProbeClient(flags, log)
			status, err := probe(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().IntVar(&flags.retries, "retries", 3, "Number of retries on connection errors and 5xx responses")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 5*time.Second, "Timeout of each attempt")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log each attempt to stderr")
	return cmd
}

func newProbeClient(flags probeFlags, log *slog.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Timeout:   flags.timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	rc.RetryMax = flags.retries
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = log
	return rc.StandardClient()
}

func probe(ctx context.Context, client *http.Client, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	_, err = io.Copy(io.Discard, resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, UnhealthyStatusError{URL: url, Status: resp.StatusCode}
	}
	return resp.StatusCode, nil
}
