package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greyshaman/runen/cli"
	"github.com/greyshaman/runen/config"
)

var (
	exportDbPath string
	exportTable  string
	exportOutput string
)

// exportCmd dumps a monitoring database table to CSV.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exports a monitoring database table to CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, err := config.NewAppConfig(configFile)
		if err != nil {
			return err
		}
		appCfg.Cli.Mode = config.ModeExport

		if cmd.Flags().Changed("dbPath") {
			appCfg.Cli.DbPath = exportDbPath
		}
		if cmd.Flags().Changed("table") {
			appCfg.Cli.ExportTable = exportTable
		}
		if cmd.Flags().Changed("output") {
			appCfg.Cli.ExportOutput = exportOutput
		}

		if err := appCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration for export mode: %w", err)
		}
		return cli.NewOrchestrator(appCfg).Run()
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDbPath, "dbPath", "", "Path to the SQLite monitoring database.")
	exportCmd.Flags().StringVar(&exportTable, "table", "NeuronStatuses", "Table to export ('NeuronStatuses' or 'PortStatuses').")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output CSV file (stdout if empty).")
}
