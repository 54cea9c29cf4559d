package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mgiraud/dockhand/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter dockhand.yaml",
	Long: `Writes a commented dockhand.yaml in the current directory.

The repository access token is not stored in the file: set DOCKHAND_GIT_TOKEN
or let dockhand prompt for it at deploy time.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.DefaultFileName
	}

	if err := config.WriteSkeleton(path); err != nil {
		return err
	}

	PrintSuccess("Created %s", path)
	PrintInfo("Edit it, then run 'dockhand deploy'")
	return nil
}
