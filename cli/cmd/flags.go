// Package cmd provides CLI commands for the pagestream binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags.
var (
	// ConfigFlag points at a pagestream.yaml config file. Flag values
	// always override config file values.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to pagestream.yaml config file",
	}

	// QuietFlag suppresses the result summary.
	QuietFlag = &cli.BoolFlag{
		Name:  "quiet",
		Usage: "Suppress result output",
	}
)

// StateFlags returns the session snapshot store flags shared by
// render and inspect.
func StateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "state-backend",
			Usage: "Session state store: memory or redis (default: none)",
		},
		&cli.StringFlag{
			Name:  "state-url",
			Usage: "Redis connection URL for the state store",
		},
	}
}
