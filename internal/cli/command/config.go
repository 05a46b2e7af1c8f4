package command

import (
	"fmt"

	"github.com/knadh/koanf/maps"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/nskv/internal/cli/output"
	"github.com/yndnr/nskv/internal/config"
	"github.com/yndnr/nskv/internal/infra/buildinfo"
)

// ConfigCommand shows the effective configuration.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the merged configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:  "validate",
				Usage: "Check the configuration",
				Action: func(c *cli.Context) error {
					// Before already loaded and verified it.
					fmt.Fprintln(stdout(c), "configuration is valid")
					return nil
				},
			},
		},
	}
}

func configShow(c *cli.Context) error {
	flat := config.Flatten(config.Sanitize(loadedConfig(c)))
	if format, _ := output.ParseFormat(c.String("output")); format == output.FormatTable {
		return render(c, flat)
	}
	return render(c, maps.Unflatten(flat, "."))
}

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			return render(c, buildinfo.Get())
		},
	}
}
