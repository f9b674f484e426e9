package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var RootCmd = &cobra.Command{
	Use:   "cargas",
	Short: "schedule cocoa freight loads and driver restrictions",
	Long: `cargas keeps loads ("cargas") and driver restrictions consistent with the
reference lists and the fleet they are assigned from. It serves the REST API
and offers maintenance commands for the backing stores.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file (optional)")
	RootCmd.AddCommand(serverCommand())
	RootCmd.AddCommand(migrateCommand())
	RootCmd.AddCommand(exportCommand())
	RootCmd.AddCommand(fleetCommand())
}
