package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pagecraft-io/pagestream/cli/config"
	"github.com/pagecraft-io/pagestream/iox"
	"github.com/pagecraft-io/pagestream/types"
)

// InspectCommand returns the inspect command. All subcommands are read-only.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect persisted session state (read-only)",
		Subcommands: []*cli.Command{
			inspectStateCommand(),
		},
	}
}

func inspectStateCommand() *cli.Command {
	flags := []cli.Flag{ConfigFlag}
	flags = append(flags, StateFlags()...)

	return &cli.Command{
		Name:      "state",
		Usage:     "Show the persisted snapshot for a page",
		ArgsUsage: "<slug>",
		Flags:     flags,
		Action:    inspectStateAction,
	}
}

func inspectStateAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("slug required", 1)
	}
	meta := types.NewPageMeta(c.Args().First(), "", "")

	fileCfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fileCfg = loaded
	}

	store, err := buildStore(c, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if store == nil {
		return cli.Exit("a state backend is required (--state-backend or config file)", 1)
	}
	defer iox.DiscardClose(store)

	snap, err := store.Load(c.Context, meta.PageID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return cli.Exit(fmt.Sprintf("no fresh snapshot for %s", meta.PageID), 1)
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	fmt.Println(string(body))
	return nil
}
