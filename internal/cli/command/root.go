// Package command defines the nskv CLI commands on urfave/cli/v2. Every
// command works on a namespaced client built from the merged configuration
// (file, NSKV_* variables, global flags).
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/nskv/internal/cli/output"
	"github.com/yndnr/nskv/internal/config"
	"github.com/yndnr/nskv/internal/infra/buildinfo"
	"github.com/yndnr/nskv/internal/infra/tlsroots"
	"github.com/yndnr/nskv/internal/telemetry/logger"
	"github.com/yndnr/nskv/pkg/nskv"
	"github.com/yndnr/nskv/pkg/nskv/redisconn"
)

// Dialer opens the store connection for a loaded configuration.
type Dialer func(cfg *config.Config) (nskv.Conn, error)

const (
	metaConfig = "config"
	metaLogger = "logger"
	metaDialer = "dialer"

	defaultTimeout = 30 * time.Second
)

// App creates the CLI application connected through go-redis.
func App() *cli.App {
	return NewApp(DialStore)
}

// NewApp creates the CLI application with a custom store dialer.
func NewApp(dial Dialer) *cli.App {
	return &cli.App{
		Name:    "nskv",
		Usage:   "namespaced access to a Redis-compatible store",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			ScanCommand(),
			PurgeCommand(),
			DrainCommand(),
			JSONCommand(),
			BatchCommand(),
			MirrorCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Metadata: map[string]any{metaDialer: dial},
		Before:   before,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "configuration file (YAML)",
			EnvVars: []string{"NSKV_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "store URL, e.g. redis://localhost:6379/0",
		},
		&cli.StringSliceFlag{
			Name:  "addr",
			Usage: "store seed address; repeat for a cluster",
		},
		&cli.BoolFlag{
			Name:  "cluster",
			Usage: "connect in cluster mode",
		},
		&cli.StringFlag{
			Name:    "prefix",
			Aliases: []string{"p"},
			Usage:   "key namespace prefix",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   "table",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "deadline for the whole command",
			Value: defaultTimeout,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "debug logging on stderr",
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Config  string
	URL     string
	Addrs   []string
	Cluster bool
	Prefix  string
	Output  string
	Timeout time.Duration
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:  c.String("config"),
		URL:     c.String("url"),
		Addrs:   c.StringSlice("addr"),
		Cluster: c.Bool("cluster"),
		Prefix:  c.String("prefix"),
		Output:  c.String("output"),
		Timeout: c.Duration("timeout"),
		Verbose: c.Bool("verbose"),
	}
}

// overrides maps explicitly set flags onto config keys.
func overrides(c *cli.Context, f *GlobalFlags) map[string]any {
	m := make(map[string]any)
	if c.IsSet("url") {
		m["store.url"] = f.URL
	}
	if c.IsSet("addr") {
		m["store.addrs"] = f.Addrs
	}
	if c.IsSet("cluster") {
		m["store.cluster"] = f.Cluster
	}
	if c.IsSet("prefix") {
		m["store.prefix"] = f.Prefix
	}
	return m
}

func before(c *cli.Context) error {
	f := ParseGlobalFlags(c)
	if _, err := output.ParseFormat(f.Output); err != nil {
		return err
	}

	cfg, err := config.Load(f.Config, overrides(c, f))
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if f.Verbose {
		level = "debug"
	} else if level == config.DefaultLogLevel {
		// keep the terminal quiet unless asked
		level = "warn"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "text", Output: c.App.ErrWriter})
	if err != nil {
		return err
	}

	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaLogger] = log
	return nil
}

// DialStore connects with go-redis according to the store section.
func DialStore(cfg *config.Config) (nskv.Conn, error) {
	opts := redisconn.Options{
		URL:         cfg.Store.URL,
		Addrs:       cfg.Store.Addrs,
		Cluster:     cfg.Store.ClusterMode(),
		Password:    cfg.Store.Password,
		DB:          cfg.Store.DB,
		DialTimeout: cfg.Store.DialTimeout,
	}
	if len(opts.Addrs) > 0 {
		opts.URL = ""
	}
	if tlsOpts := storeTLS(&cfg.Store); tlsOpts.Enabled() {
		tc, err := tlsroots.ClientConfig(tlsOpts)
		if err != nil {
			return nil, err
		}
		opts.TLSConfig = tc
	}
	return redisconn.New(opts)
}

func storeTLS(s *config.StoreSection) tlsroots.ClientOptions {
	return tlsroots.ClientOptions{
		CAFile:             s.TLSCAFile,
		CertFile:           s.TLSCertFile,
		KeyFile:            s.TLSKeyFile,
		ServerName:         s.TLSServerName,
		InsecureSkipVerify: s.TLSInsecure,
	}
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func cliLogger(c *cli.Context) *slog.Logger {
	if l, ok := c.App.Metadata[metaLogger].(*slog.Logger); ok {
		return l
	}
	return logger.Discard()
}

// openClient builds a namespaced client. The caller closes it.
func openClient(c *cli.Context, opts ...nskv.Option) (*nskv.Client, error) {
	cfg := loadedConfig(c)
	dial, ok := c.App.Metadata[metaDialer].(Dialer)
	if !ok || dial == nil {
		dial = DialStore
	}
	conn, err := dial(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	opts = append([]nskv.Option{nskv.WithLogger(cliLogger(c))}, opts...)
	return nskv.New(conn, cfg.Store.Prefix, opts...), nil
}

// withClient runs fn with a client under the --timeout deadline.
func withClient(c *cli.Context, fn func(ctx context.Context, client *nskv.Client) error, opts ...nskv.Option) error {
	client, err := openClient(c, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	return fn(ctx, client)
}

func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if d := c.Duration("timeout"); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// render writes data to the app writer in the selected format.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(stdout(c), data)
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

func stdin(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}
