// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/z5labs/picoserve"
	"github.com/z5labs/picoserve/config"
	"github.com/z5labs/picoserve/executor"
	"github.com/z5labs/picoserve/health"
	"github.com/z5labs/picoserve/internal/slogfield"
	"github.com/z5labs/picoserve/internal/try"
	"github.com/z5labs/picoserve/middleware"
	"github.com/z5labs/picoserve/otelconfig"

	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// gzipMinSize is the smallest response body worth compressing.
const gzipMinSize = 1024

func newServeCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured routes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer try.Recover(&err)

			cfg, err := loadConfig(root, cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("address", "", "Address to listen on, e.g. :9000")
	flags.Int("backlog", 0, "Maximum number of pending connections")
	flags.String("executor", "", "How requests are executed: inline, pool or unbounded")
	flags.Int("workers", 0, "Number of workers for the pool executor")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) (err error) {
	h, syncLog, err := newLogHandler(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		// syncing stderr fails on some platforms
		_ = syncLog()
	}()
	log := slog.New(h)

	shutdownOTel, err := otelconfig.Install(ctx, initializerFor(cfg.OTel))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err = errors.Join(err, shutdownOTel(shutdownCtx))
	}()

	// /health only reports ok while every server of this process is running
	var srv, healthSrv *picoserve.Server
	ready := health.And(running(&srv))
	if len(cfg.Server.HealthAddress) > 0 {
		ready = health.And(running(&srv), running(&healthSrv))
	}

	b, err := newBuilder(cfg, h)
	if err != nil {
		return err
	}
	b = b.Get("/health", health.Processor(ready))

	if len(cfg.Server.HealthAddress) > 0 {
		hc, err := picoserve.NewBuilder().
			Address(cfg.Server.HealthAddress).
			LogHandler(h).
			Get("/health", health.Processor(ready)).
			Build()
		if err != nil {
			return err
		}
		healthSrv = picoserve.New(hc)
	}

	pc, err := b.Build()
	if err != nil {
		return err
	}
	srv = picoserve.New(pc)

	log.InfoContext(
		ctx,
		"serving routes",
		slogfield.Int("routes", len(pc.Registrations())),
		slogfield.String("executor", cfg.Server.Executor),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if healthSrv != nil {
		g.Go(func() error {
			return healthSrv.Run(gctx)
		})
	}
	return g.Wait()
}

// running reports whether the server srv points to has been created
// and is running. srv is read on every check so it may be assigned
// after the metric is registered.
func running(srv **picoserve.Server) health.Metric {
	return health.MetricFunc(func(ctx context.Context) bool {
		s := *srv
		return s != nil && s.Healthy(ctx)
	})
}

// newBuilder translates cfg into a Builder holding every configured route
// behind the request id, request logging and gzip middlewares.
func newBuilder(cfg config.Config, h slog.Handler) (picoserve.Builder, error) {
	exec, err := executorFor(cfg.Server)
	if err != nil {
		return picoserve.Builder{}, err
	}

	b := picoserve.NewBuilder().
		Address(cfg.Server.Address).
		Backlog(cfg.Server.Backlog).
		ReadTimeout(cfg.Server.ReadTimeout).
		WriteTimeout(cfg.Server.WriteTimeout).
		DrainTimeout(cfg.Server.DrainTimeout).
		Executor(exec).
		LogHandler(h).
		Use(
			middleware.RequestID(),
			middleware.LogRequest(h),
			middleware.Gzip(gzipMinSize),
		)

	for _, r := range cfg.Routes {
		b = b.Handle(picoserve.Handle(r.Path, routeMethods(r), routeProcessor(r)))
	}
	return b, nil
}

func executorFor(cfg config.ServerConfig) (picoserve.Executor, error) {
	switch cfg.Executor {
	case config.ExecutorInline:
		return executor.Inline{}, nil
	case config.ExecutorUnbounded:
		return executor.Unbounded{}, nil
	case config.ExecutorPool:
		if cfg.Workers < 1 {
			return nil, config.InvalidValueError{
				Key:    "server.workers",
				Value:  cfg.Workers,
				Reason: "pool executor needs at least one worker",
			}
		}
		return executor.NewPool(cfg.Workers), nil
	default:
		return nil, config.InvalidValueError{
			Key:    "server.executor",
			Value:  cfg.Executor,
			Reason: "unknown executor",
		}
	}
}

func initializerFor(cfg config.OTelConfig) otelconfig.Initializer {
	switch cfg.Exporter {
	case config.ExporterStdout:
		return otelconfig.Stdout(otelconfig.ServiceName(cfg.ServiceName))
	case config.ExporterOTLP:
		return otelconfig.OTLP(
			otelconfig.ServiceName(cfg.ServiceName),
			otelconfig.Target(cfg.Target),
		)
	case config.ExporterGCP:
		return otelconfig.GoogleCloud(
			otelconfig.ServiceName(cfg.ServiceName),
			otelconfig.ProjectID(cfg.ProjectID),
		)
	default:
		return otelconfig.Noop
	}
}

// routeMethods defaults to GET when a route lists no methods.
func routeMethods(r config.Route) picoserve.MethodSet {
	if len(r.Methods) == 0 {
		return picoserve.Methods(http.MethodGet)
	}
	return picoserve.ParseMethods(strings.Join(r.Methods, ","))
}

func routeProcessor(r config.Route) picoserve.Processor {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	contentType := r.ContentType
	if len(contentType) == 0 {
		contentType = "text/plain; charset=utf-8"
	}
	body := []byte(r.Body)

	var p picoserve.Processor = picoserve.ProcessorFunc(func(_ context.Context, _ *picoserve.Request) (*picoserve.Response, error) {
		resp := picoserve.NewResponse(status, body)
		resp.Header.Set("Content-Type", contentType)
		return resp, nil
	})
	if !r.Breaker {
		return p
	}
	return middleware.CircuitBreaker(gobreaker.Settings{
		Name: r.Path,
	})(p)
}
