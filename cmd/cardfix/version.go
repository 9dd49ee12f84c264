package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/cardfix/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Needs neither config nor fixtures
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "cardfix %s\n", version.GitRelease)
		fmt.Fprintf(w, "  Go:     %s\n", version.GoInfo)
		fmt.Fprintf(w, "  Commit: %s\n", version.GitCommit)
		fmt.Fprintf(w, "  Date:   %s\n", version.GitCommitDate)
	},
}
