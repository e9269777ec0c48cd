package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pagecraft-io/pagestream/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// VersionCommand returns the version command.
// It never contacts the generation backend.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(*cli.Context) error {
		body, err := json.MarshalIndent(VersionResponse{
			Version: types.Version,
			Commit:  commit,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	}
}
