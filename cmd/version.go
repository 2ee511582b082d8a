package cmd

import (
	"fmt"

	"github.com/anoixa/image-api/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		commit := config.CommitHash
		if commit == "" {
			commit = "n/a"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "image-api %s (%s)\n", config.Version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
