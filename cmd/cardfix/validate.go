package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/cardfix/internal/fixture"
)

var validateCmd = &cobra.Command{
	Use:   "validate <exam-id>",
	Short: "Check scan.json against the card layout schema",
	Long: `Validate cards/<exam-id>/scan.json against the card layout schema and
print a per-page summary: columns, model points, recognition counts and the
four corner points. Exits non-zero when problems are found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !fixtures.Exists() {
			return fmt.Errorf("fixture root %s does not exist", fixtures.Path())
		}
		rep, err := fixture.Validate(fixtures, args[0])
		if err != nil {
			return err
		}
		if err := printer.Print(rep); err != nil {
			return err
		}
		if !rep.Valid {
			return fmt.Errorf("%s: %d problem(s) found", rep.ScanPath, len(rep.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
