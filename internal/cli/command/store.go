package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/nskv/internal/cli/output"
	"github.com/yndnr/nskv/pkg/nskv"
)

// PingCommand checks that the store answers.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check that the store answers",
		Action: func(c *cli.Context) error {
			return withClient(c, func(ctx context.Context, client *nskv.Client) error {
				if err := client.Ping(ctx); err != nil {
					return err
				}
				fmt.Fprintln(stdout(c), "PONG")
				return nil
			})
		},
	}
}

// ScanCommand iterates keys of the namespace, or fields of a hash.
func ScanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "List keys of the namespace, or fields of a hash",
		ArgsUsage: "[PATTERN]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "hash", Usage: "scan the fields of this hash instead of the keyspace"},
			&cli.Int64Flag{Name: "count", Usage: "per-round work hint", Value: 100},
			&cli.BoolFlag{Name: "one", Usage: "stop after the first round that yields items"},
			&cli.Uint64Flag{Name: "cursor", Usage: "resume from a previous cursor"},
			&cli.BoolFlag{Name: "strip", Usage: "print keys without the namespace prefix"},
			&cli.BoolFlag{Name: "progress", Usage: "report rounds on stderr"},
		},
		Action: scanAction,
	}
}

// scanOutput is the machine-readable scan result.
type scanOutput struct {
	Items    []string `json:"items" yaml:"items"`
	Cursor   uint64   `json:"cursor" yaml:"cursor"`
	Rounds   int      `json:"rounds" yaml:"rounds"`
	Complete bool     `json:"complete" yaml:"complete"`
	Anomaly  bool     `json:"anomaly,omitempty" yaml:"anomaly,omitempty"`
}

func scanAction(c *cli.Context) error {
	hash := c.String("hash")
	progress := output.NewProgress(nil, "scan")
	if c.Bool("progress") {
		progress = output.NewProgress(stderr(c), "scan")
	}

	return withClient(c, func(ctx context.Context, client *nskv.Client) error {
		var items []string
		res, err := client.Scan(ctx, c.Args().First(), nskv.ScanOptions{
			HashKey: hash,
			Count:   c.Int64("count"),
			One:     c.Bool("one"),
			Cursor:  c.Uint64("cursor"),
			EachRound: func(_ context.Context, batch []string) error {
				items = append(items, batch...)
				progress.Round(len(batch))
				return nil
			},
		})
		progress.Finish()
		if err != nil {
			return err
		}

		if hash == "" && c.Bool("strip") {
			ns := client.Namespacer()
			for i, k := range items {
				items[i] = ns.Strip(k)
			}
		}

		out := scanOutput{
			Items:    items,
			Cursor:   res.Cursor,
			Rounds:   res.Rounds,
			Complete: res.Complete,
			Anomaly:  res.Anomaly,
		}
		if out.Items == nil {
			out.Items = []string{}
		}
		if format, _ := output.ParseFormat(c.String("output")); format != output.FormatTable {
			return render(c, out)
		}

		if err := render(c, scanTable(hash != "", items)); err != nil {
			return err
		}
		if !res.Complete {
			fmt.Fprintf(stderr(c), "cursor: %d\n", res.Cursor)
		}
		return nil
	})
}

func scanTable(hash bool, items []string) *output.Table {
	if !hash {
		t := &output.Table{Headers: []string{"KEY"}}
		for _, k := range items {
			t.AddRow(k)
		}
		return t
	}
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	for i := 0; i+1 < len(items); i += 2 {
		t.AddRow(items[i], items[i+1])
	}
	return t
}

// PurgeCommand deletes keys, key patterns and hash fields.
func PurgeCommand() *cli.Command {
	return &cli.Command{
		Name:      "purge",
		Usage:     "Delete keys, patterns (with " + nskv.Wildcard + ") and hash fields (HASH" + nskv.FieldSeparator + "FIELD...)",
		ArgsUsage: "NAME...",
		Action: func(c *cli.Context) error {
			names := c.Args().Slice()
			if len(names) == 0 {
				return fmt.Errorf("purge: at least one name is required")
			}
			return withClient(c, func(ctx context.Context, client *nskv.Client) error {
				if err := client.Purge(ctx, names...); err != nil {
					return err
				}
				fmt.Fprintf(stdout(c), "purged %d name(s)\n", len(names))
				return nil
			})
		},
	}
}

// DrainCommand pops a set and deletes the key named by each member.
func DrainCommand() *cli.Command {
	return &cli.Command{
		Name:      "drain",
		Usage:     "Pop every member of a set and delete the key each member names",
		ArgsUsage: "KEY",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "sorted", Usage: "KEY is a sorted set"},
			&cli.StringFlag{Name: "rename", Usage: "key pattern; " + nskv.Wildcard + " is replaced by the member"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("drain: exactly one KEY is required")
			}
			key := c.Args().First()
			return withClient(c, func(ctx context.Context, client *nskv.Client) error {
				if err := client.Drain(ctx, key, c.Bool("sorted"), c.String("rename")); err != nil {
					return err
				}
				fmt.Fprintf(stdout(c), "drained %s\n", key)
				return nil
			})
		},
	}
}
