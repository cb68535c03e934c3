package ember

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
)

// ServerConfig holds the transport-level configuration: bind address,
// timeouts, TLS material and virtual-host mode. Everything about the content
// being served lives in the Handler's Config instead.
type ServerConfig struct {
	// Host is the bind address (0.0.0.0 for all interfaces).
	// Default: "127.0.0.1"
	Host string

	// Port is the TCP port to listen on.
	// Default: 8080
	Port int

	// ReadTimeout is the maximum time to read an entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to write a response.
	WriteTimeout time.Duration

	// Concurrency limits the number of concurrently served connections.
	Concurrency int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// VHost enables directory-per-host routing: requests for host h are
	// served from <root>/<h> by a lazily built per-host handler.
	VHost bool

	// Logger receives access logs and server diagnostics. When nil, the
	// handler's logger is used.
	Logger *Logger
}

// DefaultServerConfig returns a server configuration with localhost binding
// and conservative timeouts.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		Concurrency:  256 * 1024,
	}
}

// Server adapts the core pipeline to fasthttp: it converts each wire request
// into a Request envelope, runs the Handler, and writes the Response envelope
// back, with panic recovery and one structured access-log line per request.
type Server struct {
	server  *fasthttp.Server
	handler *Handler
	cfg     ServerConfig
	log     *Logger

	// vhosts caches per-host handlers in vhost mode.
	vhosts sync.Map
}

// NewServer creates a server around handler.
//
// Example:
//
//	srv := ember.NewServer(handler, ember.DefaultServerConfig())
//	log.Fatal(srv.ListenAndServeGraceful())
func NewServer(handler *Handler, cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = handler.log
	}

	s := &Server{
		handler: handler,
		cfg:     cfg,
		log:     log,
	}

	s.server = &fasthttp.Server{
		Handler:      s.handleFastHTTP,
		Name:         "ember",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Concurrency:  cfg.Concurrency,
	}

	return s
}

// Addr returns the configured listen address in host:port form.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
}

// ListenAndServe starts the server and blocks until it stops. TLS is used
// when both certificate and key files are configured.
func (s *Server) ListenAndServe() error {
	addr := s.Addr()
	s.log.Info("server listening", "addr", addr, "tls", s.cfg.TLSCertFile != "")

	if s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != "" {
		return s.server.ListenAndServeTLS(addr, s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	}
	return s.server.ListenAndServe(addr)
}

// ListenAndServeGraceful starts the server and shuts it down cleanly when one
// of the given signals arrives (SIGINT and SIGTERM by default), letting
// in-flight requests complete.
func (s *Server) ListenAndServeGraceful(signals ...os.Signal) error {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	}
}

// Shutdown gracefully stops the server, waiting for active requests up to the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- s.server.Shutdown()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleFastHTTP converts one fasthttp request into a pipeline invocation.
func (s *Server) handleFastHTTP(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic recovered", "error", fmt.Sprintf("%v", r), "path", string(ctx.Path()))
			writeResponse(ctx, errorResponse(ErrInternalServer), false)
		}
	}()

	handler := s.handler
	if s.cfg.VHost {
		var serr *StatusError
		handler, serr = s.vhostHandler(string(ctx.Host()))
		if serr != nil {
			resp := errorResponse(serr)
			writeResponse(ctx, resp, ctx.IsHead())
			s.logAccess(ctx, resp, start)
			return
		}
	}

	req := &Request{
		Method:          string(ctx.Method()),
		Path:            string(ctx.Path()),
		AcceptEncoding:  string(ctx.Request.Header.Peek("Accept-Encoding")),
		IfModifiedSince: string(ctx.Request.Header.Peek("If-Modified-Since")),
		IfNoneMatch:     string(ctx.Request.Header.Peek("If-None-Match")),
	}

	resp := handler.Handle(req)
	writeResponse(ctx, resp, ctx.IsHead())
	s.logAccess(ctx, resp, start)
}

// writeResponse copies a response envelope onto the wire. The core always
// produces bodies; HEAD requests drop them here.
func writeResponse(ctx *fasthttp.RequestCtx, resp *Response, head bool) {
	ctx.Response.Header.SetNoDefaultContentType(true)
	ctx.SetStatusCode(resp.Status)

	for _, hd := range resp.Headers {
		ctx.Response.Header.Set(hd.Name, hd.Value)
	}

	if resp.Body == nil {
		return
	}
	if head {
		ctx.Response.SkipBody = true
		resp.Body.Close()
		return
	}
	ctx.Response.SetBodyStream(resp.Body, int(resp.ContentLength))
}

// logAccess emits the structured access-log line for one request.
func (s *Server) logAccess(ctx *fasthttp.RequestCtx, resp *Response, start time.Time) {
	s.log.Info("request",
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"status", resp.Status,
		"bytes", resp.ContentLength,
		"duration", time.Since(start).String(),
		"remote", ctx.RemoteIP().String(),
	)
}

// vhostHandler returns the handler serving the given host, building and
// caching it on first use. The host directory is <root>/<host> with the port
// stripped and the name lowercased; hosts that could escape the root are
// rejected and hosts without a directory are absent.
func (s *Server) vhostHandler(host string) (*Handler, *StatusError) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	if host == "" || strings.ContainsAny(host, "/\\") || strings.Contains(host, "..") {
		return nil, ErrForbidden
	}

	if cached, ok := s.vhosts.Load(host); ok {
		return cached.(*Handler), nil
	}

	cfg := s.handler.cfg
	cfg.Root = filepath.Join(s.handler.root, host)

	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, ErrNotFound
	}

	actual, _ := s.vhosts.LoadOrStore(host, handler)
	return actual.(*Handler), nil
}
