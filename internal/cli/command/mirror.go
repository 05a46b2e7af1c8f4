package command

import (
	"context"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/nskv/internal/cli/output"
	"github.com/yndnr/nskv/internal/storage/mirror"
)

// MirrorCommand manages the local mirror log of document writes.
func MirrorCommand() *cli.Command {
	return &cli.Command{
		Name:  "mirror",
		Usage: "Inspect and maintain the mirror log (mirror.dir)",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List mirrored writes",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "since", Usage: "only records newer than this age"},
				},
				Action: mirrorList,
			},
			{
				Name:  "prune",
				Usage: "Delete mirrored writes older than an age",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "older-than", Usage: "age of the oldest record kept", Required: true},
				},
				Action: mirrorPrune,
			},
			{
				Name:      "backup",
				Usage:     "Write a backup of the log to FILE",
				ArgsUsage: "FILE",
				Action:    mirrorBackup,
			},
			{
				Name:      "restore",
				Usage:     "Load a backup written by mirror backup",
				ArgsUsage: "FILE",
				Action:    mirrorRestore,
			},
		},
	}
}

// mirrorRow is one record as listed.
type mirrorRow struct {
	ID     string `json:"id" yaml:"id"`
	Time   string `json:"time" yaml:"time"`
	Query  string `json:"query" yaml:"query"`
	Params []any  `json:"params" yaml:"params"`
}

func withMirror(c *cli.Context, fn func(ctx context.Context, log *mirror.Log) error) error {
	log, err := openMirror(c)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	return fn(ctx, log)
}

func mirrorList(c *cli.Context) error {
	var since time.Time
	if d := c.Duration("since"); d > 0 {
		since = time.Now().Add(-d)
	}
	return withMirror(c, func(ctx context.Context, log *mirror.Log) error {
		var rows []mirrorRow
		err := log.Range(ctx, since, func(r *mirror.Record) bool {
			rows = append(rows, mirrorRow{
				ID:     r.ID.String(),
				Time:   r.Time.UTC().Format(time.RFC3339),
				Query:  r.Query,
				Params: r.Params,
			})
			return true
		})
		if err != nil {
			return err
		}

		if format, _ := output.ParseFormat(c.String("output")); format != output.FormatTable {
			if rows == nil {
				rows = []mirrorRow{}
			}
			return render(c, rows)
		}
		t := &output.Table{Headers: []string{"ID", "TIME", "QUERY", "PARAMS"}}
		for _, r := range rows {
			params, _ := jsoniter.MarshalToString(r.Params)
			t.AddRow(r.ID, r.Time, r.Query, params)
		}
		return render(c, t)
	})
}

func mirrorPrune(c *cli.Context) error {
	before := time.Now().Add(-c.Duration("older-than"))
	return withMirror(c, func(ctx context.Context, log *mirror.Log) error {
		n, err := log.Prune(ctx, before)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout(c), "pruned %d record(s)\n", n)
		return nil
	})
}

func mirrorBackup(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("mirror backup: FILE expected")
	}
	return withMirror(c, func(_ context.Context, log *mirror.Log) error {
		f, err := os.Create(c.Args().First())
		if err != nil {
			return err
		}
		if err := log.Backup(f); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	})
}

func mirrorRestore(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("mirror restore: FILE expected")
	}
	return withMirror(c, func(_ context.Context, log *mirror.Log) error {
		f, err := os.Open(c.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		return log.Restore(f)
	})
}
