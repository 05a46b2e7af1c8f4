// Package redisconn implements nskv.Conn over go-redis, for a single node
// or a cluster.
package redisconn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/nskv/pkg/nskv"
)

// Options selects and configures the store connection.
type Options struct {
	// URL is a redis:// or rediss:// URL for a single node. It wins over
	// Addrs when Cluster is false.
	URL string
	// Addrs lists host:port seed addresses.
	Addrs []string
	// Cluster connects to a cluster through the seed addresses.
	Cluster bool

	Password    string
	DB          int
	DialTimeout time.Duration

	// TLSConfig enables TLS. It replaces the configuration a rediss:// URL
	// implies.
	TLSConfig *tls.Config
}

// protocol pins RESP2. Under RESP3 replies such as ZPOPMIN with a count
// arrive as nested pairs instead of flat member/score lists.
const protocol = 2

// Conn is an nskv.Conn backed by a go-redis client.
type Conn struct {
	rdb redis.UniversalClient
}

var _ nskv.Conn = (*Conn)(nil)

// New connects according to opts. No command is sent; use Ping to check
// reachability.
func New(opts Options) (*Conn, error) {
	if opts.Cluster {
		addrs := opts.Addrs
		if len(addrs) == 0 && opts.URL != "" {
			o, err := redis.ParseURL(opts.URL)
			if err != nil {
				return nil, fmt.Errorf("parse store url: %w", err)
			}
			addrs = []string{o.Addr}
			if opts.Password == "" {
				opts.Password = o.Password
			}
		}
		if len(addrs) == 0 {
			return nil, errors.New("cluster mode needs at least one address")
		}
		return Wrap(redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       addrs,
			Password:    opts.Password,
			DialTimeout: opts.DialTimeout,
			TLSConfig:   opts.TLSConfig,
			Protocol:    protocol,
		})), nil
	}

	var o *redis.Options
	switch {
	case opts.URL != "":
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse store url: %w", err)
		}
		o = parsed
	case len(opts.Addrs) > 0:
		o = &redis.Options{Addr: opts.Addrs[0]}
	default:
		return nil, errors.New("no store url or address configured")
	}
	if opts.Password != "" {
		o.Password = opts.Password
	}
	if opts.DB != 0 {
		o.DB = opts.DB
	}
	if opts.DialTimeout > 0 {
		o.DialTimeout = opts.DialTimeout
	}
	if opts.TLSConfig != nil {
		o.TLSConfig = opts.TLSConfig
	}
	o.Protocol = protocol
	return Wrap(redis.NewClient(o)), nil
}

// Wrap adapts an existing go-redis client.
func Wrap(rdb redis.UniversalClient) *Conn {
	return &Conn{rdb: rdb}
}

// Client returns the underlying go-redis client.
func (c *Conn) Client() redis.UniversalClient {
	return c.rdb
}

// Do executes one command. A null reply is (nil, nil).
func (c *Conn) Do(ctx context.Context, args ...any) (any, error) {
	v, err := c.rdb.Do(ctx, args...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return v, err
}

// Begin starts a pipeline, or a MULTI/EXEC pipeline for Transaction.
func (c *Conn) Begin(mode nskv.BatchMode) nskv.Pending {
	if mode == nskv.Transaction {
		return &pending{pipe: c.rdb.TxPipeline()}
	}
	return &pending{pipe: c.rdb.Pipeline()}
}

// Close closes the client and its pool.
func (c *Conn) Close() error {
	return c.rdb.Close()
}

type pending struct {
	pipe redis.Pipeliner
	cmds []*redis.Cmd
}

func (p *pending) Queue(ctx context.Context, args ...any) {
	p.cmds = append(p.cmds, p.pipe.Do(ctx, args...))
}

func (p *pending) Len() int {
	return len(p.cmds)
}

// Exec runs the pipeline. go-redis reports the first failed command as the
// pipeline error; reply errors stay per command and only transport
// failures are returned.
func (p *pending) Exec(ctx context.Context) ([]nskv.Result, error) {
	if _, err := p.pipe.Exec(ctx); err != nil && !isReplyError(err) {
		return nil, err
	}
	results := make([]nskv.Result, len(p.cmds))
	for i, cmd := range p.cmds {
		v, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			err = nil
		}
		results[i] = nskv.Result{Value: v, Err: err}
	}
	return results, nil
}

// isReplyError reports whether err came from the store rather than the
// network. EXECABORT is a reply error but fails the whole transaction.
func isReplyError(err error) bool {
	var rerr redis.Error
	if !errors.As(err, &rerr) {
		return false
	}
	return !isExecAbort(err)
}

func isExecAbort(err error) bool {
	return strings.HasPrefix(err.Error(), "EXECABORT")
}
