package command

import (
	"context"
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/nskv/internal/config"
	"github.com/yndnr/nskv/internal/storage/mirror"
	"github.com/yndnr/nskv/pkg/nskv"
)

// JSONCommand groups the document commands.
func JSONCommand() *cli.Command {
	return &cli.Command{
		Name:  "json",
		Usage: "Read and write JSON documents",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Read a path of a document",
				ArgsUsage: "KEY [PATH]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "keep-array", Usage: "keep a one-element result wrapped"},
					&cli.BoolFlag{Name: "empty-null", Usage: "report an absent path as null"},
					&cli.StringFlag{Name: "default", Usage: "JSON value used when the stored payload does not decode"},
				},
				Action: jsonGet,
			},
			{
				Name:      "set",
				Usage:     "Write a JSON value at a path of a document",
				ArgsUsage: "KEY PATH VALUE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "nx", Usage: "only if the path does not exist"},
					&cli.BoolFlag{Name: "xx", Usage: "only if the path exists"},
					&cli.StringFlag{Name: "mirror-query", Usage: "record this query in the mirror log after the write"},
					&cli.StringSliceFlag{Name: "mirror-param", Usage: "query parameter; defaults to KEY and VALUE"},
				},
				Action: jsonSet,
			},
			{
				Name:      "del",
				Usage:     "Delete a path of a document",
				ArgsUsage: "KEY [PATH]",
				Action:    jsonDel,
			},
		},
	}
}

func jsonGet(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return fmt.Errorf("json get: KEY [PATH] expected")
	}
	opts := nskv.GetOptions{
		KeepArray:      c.Bool("keep-array"),
		EmptyArrayNull: c.Bool("empty-null"),
	}
	if raw := c.String("default"); raw != "" {
		if err := jsoniter.UnmarshalFromString(raw, &opts.Default); err != nil {
			return fmt.Errorf("json get: --default: %w", err)
		}
	}

	return withClient(c, func(ctx context.Context, client *nskv.Client) error {
		v, err := client.JSONGet(ctx, c.Args().Get(0), c.Args().Get(1), opts)
		if err != nil {
			return err
		}
		return render(c, v)
	})
}

func jsonSet(c *cli.Context) error {
	if c.NArg() != 3 {
		return fmt.Errorf("json set: KEY PATH VALUE expected")
	}
	key, path, value := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)
	var parsed any
	if err := jsoniter.UnmarshalFromString(value, &parsed); err != nil {
		return fmt.Errorf("json set: VALUE is not valid JSON: %w", err)
	}

	opts := nskv.SetOptions{NX: c.Bool("nx"), XX: c.Bool("xx")}
	var clientOpts []nskv.Option
	if q := c.String("mirror-query"); q != "" {
		log, err := openMirror(c)
		if err != nil {
			return err
		}
		defer log.Close()
		clientOpts = append(clientOpts, nskv.WithMirror(log))

		params := []any{key, value}
		if ps := c.StringSlice("mirror-param"); len(ps) > 0 {
			params = make([]any, len(ps))
			for i, p := range ps {
				params[i] = p
			}
		}
		opts.Mirror = &nskv.Mirror{Query: q, Params: params}
	}

	return withClient(c, func(ctx context.Context, client *nskv.Client) error {
		reply, err := client.JSONSet(ctx, key, path, json.RawMessage(value), opts)
		if err != nil {
			return err
		}
		if reply == nil {
			fmt.Fprintln(stdout(c), "not written (condition not met)")
			return nil
		}
		fmt.Fprintln(stdout(c), reply)
		return nil
	}, clientOpts...)
}

func jsonDel(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return fmt.Errorf("json del: KEY [PATH] expected")
	}
	return withClient(c, func(ctx context.Context, client *nskv.Client) error {
		n, err := client.JSONDel(ctx, c.Args().Get(0), c.Args().Get(1))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout(c), "%d\n", n)
		return nil
	})
}

// openMirror opens the mirror log named by the mirror section.
func openMirror(c *cli.Context) (*mirror.Log, error) {
	cfg := loadedConfig(c)
	if cfg.Mirror.Dir == "" {
		return nil, fmt.Errorf("mirror.dir is not configured")
	}
	key, err := config.MirrorKey(&cfg.Mirror)
	if err != nil {
		return nil, err
	}
	return mirror.Open(mirror.Options{
		Dir:        cfg.Mirror.Dir,
		Key:        key,
		GCInterval: -1,
		Logger:     cliLogger(c),
	})
}
