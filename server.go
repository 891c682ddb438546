// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package picoserve

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/z5labs/picoserve/executor"
	"github.com/z5labs/picoserve/internal/listener"
	"github.com/z5labs/picoserve/internal/noop"
	"github.com/z5labs/picoserve/internal/slogfield"
	"github.com/z5labs/picoserve/internal/try"
	"github.com/z5labs/picoserve/internal/wire"
	"github.com/z5labs/picoserve/otelslog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// State is a stage of the [Server] lifecycle.
type State int32

const (
	// Unbound is the state of a new server. No socket is held.
	Unbound State = iota

	// Bound means the listening socket is held but connections are
	// not yet accepted.
	Bound

	// Running means connections are being accepted and served.
	Running

	// Stopping means the listener is closed and in-flight requests
	// are draining.
	Stopping

	// Stopped is terminal. A stopped server cannot be started again.
	Stopped
)

// String implements the [fmt.Stringer] interface.
func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const tracerName = "github.com/z5labs/picoserve"

// Server accepts connections on a single accept loop and hands each one
// to its [Executor], which reads one request, resolves it with a [Router],
// runs the matched [Processor] and writes the response.
type Server struct {
	cfg    Configuration
	router *Router
	exec   Executor
	log    *slog.Logger
	tracer trace.Tracer
	listen func(context.Context, string, int) (net.Listener, error)

	mu           sync.Mutex
	state        State
	ln           net.Listener
	stopAccept   context.CancelFunc
	stopRequests context.CancelFunc
	acceptDone   chan struct{}

	inflight sync.WaitGroup

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// New returns an Unbound Server for the given Configuration.
func New(cfg Configuration) *Server {
	exec := cfg.executor
	if exec == nil {
		exec = executor.Inline{}
	}
	var h slog.Handler = cfg.logHandler
	if h == nil {
		h = noop.LogHandler{}
	}

	return &Server{
		cfg:    cfg,
		router: NewRouter(cfg.registrations),
		exec:   exec,
		log:    otelslog.New(h),
		tracer: otel.Tracer(tracerName),
		listen: listener.Listen,
		conns:  make(map[net.Conn]struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the address the server is listening on, or nil
// if it is not listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Healthy reports whether the server is running. It implements
// the health.Metric interface.
func (s *Server) Healthy(_ context.Context) bool {
	return s.State() == Running
}

// Start binds the listening socket and starts accepting connections.
// It returns an [IllegalStateError] unless the server is Unbound and
// a [BindError] if the socket cannot be bound, in which case the
// server stays Unbound.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Unbound {
		return IllegalStateError{Op: "start", State: s.state}
	}

	ln, err := s.listen(ctx, s.cfg.address, s.cfg.backlog)
	if err != nil {
		s.log.ErrorContext(
			ctx,
			"failed to listen for connections",
			slogfield.String("addr", s.cfg.address),
			slogfield.Error(err),
		)
		return BindError{Addr: s.cfg.address, Cause: err}
	}
	s.ln = ln
	s.state = Bound

	base := context.WithoutCancel(ctx)
	acceptCtx, stopAccept := context.WithCancel(base)
	requestCtx, stopRequests := context.WithCancel(base)
	s.stopAccept = stopAccept
	s.stopRequests = stopRequests
	s.acceptDone = make(chan struct{})

	s.state = Running
	go s.serve(acceptCtx, requestCtx, ln, s.acceptDone)

	s.log.InfoContext(
		ctx,
		"started server",
		slogfield.Addr("addr", ln.Addr()),
		slogfield.Int("backlog", s.cfg.backlog),
	)
	return nil
}

// Stop closes the listening socket and then waits for in-flight
// requests until they complete, the drain timeout elapses or ctx
// is done, whichever happens first. Connections still open after
// that are closed. Stop is a no-op unless the server is Running.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return nil
	}
	s.state = Stopping
	ln := s.ln
	acceptDone := s.acceptDone
	s.mu.Unlock()

	s.log.InfoContext(ctx, "stopping server")

	s.stopAccept()
	err := ln.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-acceptDone
		s.inflight.Wait()
	}()

	timer := time.NewTimer(s.cfg.drainTimeout)
	defer timer.Stop()

	select {
	case <-drained:
	case <-timer.C:
		s.log.WarnContext(
			ctx,
			"drain timeout elapsed with requests still in flight",
			slogfield.Duration("drain_timeout", s.cfg.drainTimeout),
		)
	case <-ctx.Done():
		s.log.WarnContext(ctx, "stop context done with requests still in flight", slogfield.Error(ctx.Err()))
	}

	s.stopRequests()
	s.closeConns()

	s.mu.Lock()
	s.state = Stopped
	s.ln = nil
	s.mu.Unlock()

	s.log.InfoContext(ctx, "stopped server")
	return err
}

// Run starts the server, blocks until ctx is done and then stops it.
func (s *Server) Run(ctx context.Context) error {
	err := s.Start(ctx)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop(context.WithoutCancel(ctx))
}

func (s *Server) serve(acceptCtx, requestCtx context.Context, ln net.Listener, done chan<- struct{}) {
	defer close(done)

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if acceptCtx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}

			delay = acceptBackoff(delay)
			s.log.ErrorContext(
				acceptCtx,
				"failed to accept connection",
				slogfield.Duration("retry_in", delay),
				slogfield.Error(err),
			)
			select {
			case <-acceptCtx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		s.submit(acceptCtx, requestCtx, conn)
	}
}

func acceptBackoff(prev time.Duration) time.Duration {
	if prev == 0 {
		return 5 * time.Millisecond
	}
	next := prev * 2
	if next > time.Second {
		return time.Second
	}
	return next
}

func (s *Server) submit(acceptCtx, requestCtx context.Context, conn net.Conn) {
	s.track(conn, true)
	s.inflight.Add(1)

	err := s.exec.Execute(acceptCtx, func() {
		defer s.inflight.Done()
		defer s.track(conn, false)

		s.handle(requestCtx, conn)
	})
	if err == nil {
		return
	}

	s.log.WarnContext(acceptCtx, "executor rejected connection", slogfield.Error(err))
	go func() {
		defer s.inflight.Done()
		defer s.track(conn, false)

		s.reject(requestCtx, conn)
	}()
}

// reject consumes the request before responding with 503 so closing
// the connection does not reset it while the client is still writing.
func (s *Server) reject(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if s.cfg.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.cfg.readTimeout))
	}

	hreq, err := wire.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		hreq = nil
	} else {
		discardBody(hreq)
	}
	s.write(ctx, conn, hreq, Status(http.StatusServiceUnavailable))
}

// maxDiscard bounds how much of an unread request body is consumed
// before the response is written.
const maxDiscard = 256 << 10

func discardBody(hreq *http.Request) {
	if hreq.Body == nil {
		return
	}
	io.CopyN(io.Discard, hreq.Body, maxDiscard)
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if s.cfg.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.cfg.readTimeout))
	}

	hreq, err := wire.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return
		}

		s.log.DebugContext(ctx, "failed to read request", slogfield.Error(err))

		status := http.StatusBadRequest
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			status = http.StatusRequestTimeout
		}
		s.write(ctx, conn, nil, Status(status))
		return
	}

	resp := s.dispatch(ctx, hreq, conn.RemoteAddr())
	discardBody(hreq)
	s.write(ctx, conn, hreq, resp)
}

func (s *Server) dispatch(ctx context.Context, hreq *http.Request, remote net.Addr) *Response {
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(hreq.Header))
	ctx, span := s.tracer.Start(
		ctx,
		hreq.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", hreq.Method),
			attribute.String("url.path", hreq.URL.Path),
		),
	)
	defer span.End()

	res := s.router.Resolve(hreq.URL.Path, hreq.Method)
	switch res.Outcome {
	case NotFound:
		span.SetAttributes(attribute.Int("http.status_code", http.StatusNotFound))
		return Status(http.StatusNotFound)
	case MethodNotAllowed:
		span.SetAttributes(attribute.Int("http.status_code", http.StatusMethodNotAllowed))
		resp := Status(http.StatusMethodNotAllowed)
		resp.Header.Set("Allow", strings.Join(res.Allow, ", "))
		return resp
	}

	reg := res.Registration
	span.SetName(hreq.Method + " " + reg.path)
	span.SetAttributes(attribute.String("http.route", reg.path))

	req := &Request{
		Method:     hreq.Method,
		Path:       hreq.URL.Path,
		Query:      hreq.URL.Query(),
		Header:     hreq.Header,
		Body:       hreq.Body,
		RemoteAddr: remote.String(),
		Proto:      hreq.Proto,
		ctx:        ctx,
	}

	resp, err := s.process(ctx, reg, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.ErrorContext(
			ctx,
			"processor failed",
			slogfield.String("method", req.Method),
			slogfield.String("path", req.Path),
			slogfield.Error(err),
		)
		resp = Status(http.StatusInternalServerError)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.Status))
	return resp
}

func (s *Server) process(ctx context.Context, reg Registration, req *Request) (resp *Response, err error) {
	defer func() {
		if err != nil {
			resp = nil
			err = ProcessorError{Method: req.Method, Path: req.Path, Cause: err}
		}
	}()
	defer try.Recover(&err)

	resp, err = reg.processor.Process(ctx, req)
	if err == nil && resp == nil {
		err = ErrNilResponse
	}
	return resp, err
}

func (s *Server) write(ctx context.Context, conn net.Conn, req *http.Request, resp *Response) {
	if s.cfg.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.writeTimeout))
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	err := wire.Write(conn, req, wire.Message{
		Status: status,
		Header: resp.Header,
		Body:   resp.Body,
	})
	if err != nil {
		s.log.WarnContext(ctx, "failed to write response", slogfield.Error(err))
	}
}

func (s *Server) track(conn net.Conn, add bool) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
}

func (s *Server) closeConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
}
