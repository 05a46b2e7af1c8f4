package nskv

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/yndnr/nskv/pkg/keyns"
)

// Client issues namespaced commands over a Conn. It is safe for concurrent
// use; batches it creates are not.
type Client struct {
	conn   Conn
	ns     keyns.Namespacer
	logger *slog.Logger
	obs    Observer
	mirror MirrorWriter
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(obs Observer) Option {
	return func(c *Client) {
		if obs != nil {
			c.obs = obs
		}
	}
}

// WithMirror sets the writer that receives mirrored document sets.
func WithMirror(w MirrorWriter) Option {
	return func(c *Client) {
		c.mirror = w
	}
}

// New creates a Client whose keys are prefixed with prefix.
func New(conn Conn, prefix string, opts ...Option) *Client {
	c := &Client{
		conn:   conn,
		ns:     keyns.New(prefix),
		logger: slog.Default(),
		obs:    nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("prefix", prefix)
	return c
}

// Namespacer returns the key namespacer of the client.
func (c *Client) Namespacer() keyns.Namespacer {
	return c.ns
}

// Conn returns the underlying connection.
func (c *Client) Conn() Conn {
	return c.conn
}

// Ping checks that the store answers.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	_, err := c.conn.Do(ctx, "PING")
	c.obs.ObserveCommand("PING", time.Since(start), err)
	return err
}

// Close closes the connection if it can be closed.
func (c *Client) Close() error {
	if cl, ok := c.conn.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
