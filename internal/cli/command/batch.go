package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/nskv/internal/cli/output"
	"github.com/yndnr/nskv/pkg/nskv"
)

// BatchCommand runs commands read from stdin as one batch.
func BatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Run commands from stdin (one \"METHOD KEY ARGS...\" per line) in one round trip",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "tx", Usage: "wrap the batch in MULTI/EXEC"},
		},
		Action: batchAction,
	}
}

// batchRow is the machine-readable result of one command.
type batchRow struct {
	Index  int    `json:"index" yaml:"index"`
	Method string `json:"method" yaml:"method"`
	Key    string `json:"key" yaml:"key"`
	Value  any    `json:"value" yaml:"value"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func batchAction(c *cli.Context) error {
	cmds, err := parseBatch(stdin(c))
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		return fmt.Errorf("batch: no commands on stdin")
	}
	mode := nskv.Pipeline
	if c.Bool("tx") {
		mode = nskv.Transaction
	}

	return withClient(c, func(ctx context.Context, client *nskv.Client) error {
		results, err := client.Exec(ctx, cmds, mode)
		if err != nil {
			return err
		}

		rows := make([]batchRow, len(results))
		for i, r := range results {
			rows[i] = batchRow{Index: i, Method: cmds[i].Method, Key: cmds[i].Key, Value: r.Value}
			if r.Err != nil {
				rows[i].Error = r.Err.Error()
			}
		}
		if format, _ := output.ParseFormat(c.String("output")); format != output.FormatTable {
			if err := render(c, rows); err != nil {
				return err
			}
		} else if err := render(c, batchTable(rows)); err != nil {
			return err
		}
		return nskv.CheckResults(cmds, results)
	})
}

func batchTable(rows []batchRow) *output.Table {
	t := &output.Table{Headers: []string{"#", "COMMAND", "RESULT"}}
	for _, r := range rows {
		result := r.Error
		if result == "" {
			result = fmt.Sprint(r.Value)
			if r.Value == nil {
				result = "(nil)"
			}
		}
		t.AddRow(strconv.Itoa(r.Index), r.Method+" "+r.Key, result)
	}
	return t
}

// parseBatch reads one command per line. Blank lines and lines starting
// with # are skipped. Arguments are separated by whitespace.
func parseBatch(r io.Reader) ([]nskv.Command, error) {
	var cmds []nskv.Command
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("batch: line %d: METHOD KEY expected", line)
		}
		args := make([]any, len(fields)-2)
		for i, f := range fields[2:] {
			args[i] = f
		}
		cmds = append(cmds, nskv.Cmd(fields[0], fields[1], args...))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("batch: read stdin: %w", err)
	}
	return cmds, nil
}
