package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/nskv/internal/core/command"
	"github.com/yndnr/nskv/internal/telemetry/logger"
)

// Config holds the server settings.
type Config struct {
	// Addr is the TCP listen address.
	Addr string

	// Password enables AUTH. Empty means every connection is trusted.
	Password string

	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds flushing one reply.
	WriteTimeout time.Duration
	// IdleTimeout bounds the wait for the next command.
	IdleTimeout time.Duration

	// RateLimit is the number of commands per second allowed per client IP.
	// Zero disables limiting.
	RateLimit float64
}

// DefaultConfig returns the settings used for a local development server.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// Metrics receives server-side events. *metric.Registry implements it.
type Metrics interface {
	ServerCommand(name string, err error)
	ServerConnOpened()
	ServerConnClosed()
	ServerReject(reason string)
}

type nopMetrics struct{}

func (nopMetrics) ServerCommand(string, error) {}
func (nopMetrics) ServerConnOpened()           {}
func (nopMetrics) ServerConnClosed()           {}
func (nopMetrics) ServerReject(string)         {}

// Server accepts RESP connections and executes their commands on an Engine.
type Server struct {
	cfg     Config
	engine  *command.Engine
	logger  *slog.Logger
	metrics Metrics
	limits  *limiters

	ln      net.Listener
	running atomic.Bool
	nextID  atomic.Uint64
	wg      sync.WaitGroup

	mu    sync.Mutex
	conns map[uint64]*Conn
}

// New creates a server. Zero timeouts take the DefaultConfig values; nil
// logger and metrics are replaced by no-op implementations.
func New(cfg Config, engine *command.Engine, log *slog.Logger, metrics Metrics) *Server {
	def := DefaultConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if engine == nil {
		engine = command.New(nil)
	}
	if log == nil {
		log = logger.Discard()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Server{
		cfg:     cfg,
		engine:  engine,
		logger:  log,
		metrics: metrics,
		limits:  newLimiters(cfg.RateLimit),
		conns:   make(map[uint64]*Conn),
	}
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("redis server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("redis server accept failed", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes open connections and waits for their
// goroutines until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var err error
	if s.ln != nil {
		if cerr := s.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}

	s.mu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, nc)
		}()
	}
}

// Conn is one client connection and its session state.
type Conn struct {
	id      uint64
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	ip      string

	session session
	closed  atomic.Bool
}

func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

func (s *Server) track(nc net.Conn) *Conn {
	c := &Conn{
		id:      s.nextID.Add(1),
		netConn: nc,
		br:      bufio.NewReader(nc),
		bw:      bufio.NewWriter(nc),
		ip:      remoteIP(nc.RemoteAddr()),
	}
	c.session.authenticated = s.cfg.Password == ""

	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
	s.limits.acquire(c.ip)
	s.metrics.ServerConnOpened()
	return c
}

func (s *Server) untrack(c *Conn) {
	_ = c.Close()
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
	s.limits.release(c.ip)
	s.metrics.ServerConnClosed()
}

func (s *Server) serveConn(ctx context.Context, nc net.Conn) {
	c := s.track(nc)
	defer s.untrack(c)

	ctx = logger.WithConnID(logger.WithLogger(ctx, s.logger), c.id)
	log := logger.L(ctx)
	log.Debug("connection opened", "remote", c.RemoteAddr().String())

	for {
		if err := nc.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.logReadError(log, err)
			return
		}

		if err := nc.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}
		args, err := ReadCommand(c.br)
		if err != nil {
			if errors.Is(err, io.EOF) || isTimeout(err) {
				s.logReadError(log, err)
				return
			}
			if errors.Is(err, ErrLimitExceeded) {
				log.Warn("protocol limit exceeded", "error", err)
				s.metrics.ServerReject("limit")
				s.writeAndFlush(c, "ERR protocol limit exceeded")
				return
			}
			s.metrics.ServerReject("protocol")
			s.writeAndFlush(c, "ERR protocol error: "+err.Error())
			return
		}
		if len(args) == 0 {
			continue
		}

		quit := s.handle(ctx, c, args)

		if err := nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return
		}
		if err := c.bw.Flush(); err != nil {
			return
		}
		if quit {
			return
		}
	}
}

func (s *Server) writeAndFlush(c *Conn, msg string) {
	_ = c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	_ = WriteError(c.bw, msg)
	_ = c.bw.Flush()
}

func (s *Server) logReadError(log *slog.Logger, err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		log.Debug("connection closed")
	case isTimeout(err):
		log.Debug("connection timed out")
	default:
		log.Debug("connection read failed", "error", err)
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func remoteIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
