package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/cardfix/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialize configuration",
	Long: `Configuration is read from --config, ./config.yaml, ~/.cardfix/config.yaml
or <home>/config.yaml, in that order. Any key can be overridden with an
environment variable: service.base_url becomes CARDFIX_SERVICE_BASE_URL.

Examples:
  cardfix config init                 # write <home>/config.yaml
  cardfix config init ./config.yaml
  cardfix config show
  cardfix config get service.base_url`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fixtures.ConfigPath()
		if len(args) > 0 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printer.Print(struct {
			ConfigFile string         `json:"config_file,omitempty" yaml:"config_file,omitempty"`
			Home       string         `json:"home" yaml:"home"`
			Entries    []config.Entry `json:"entries" yaml:"entries"`
		}{
			ConfigFile: cfgMgr.ConfigFile(),
			Home:       fixtures.Path(),
			Entries:    cfgMgr.Entries(),
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show the effective value of one key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := cfgMgr.Lookup(args[0])
		if err != nil {
			return err
		}
		return printer.Print(entry)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)

	rootCmd.AddCommand(configCmd)
}
