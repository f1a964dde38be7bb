package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greyshaman/runen/cli"
	"github.com/greyshaman/runen/config"
)

var (
	// Flags for the run command.
	runTopologyFile string
	runDbPath       string
	runMonitoring   bool
	runInputs       []int
)

// runCmd executes a topology file and feeds it input pulses.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Builds a network from a topology file and feeds it pulses.",
	Long: `Builds a live network from the given JSON or YAML topology document,
feeds the configured pulse intensities into external input port 0 and
prints the pulses observed on every output port. With monitoring
enabled, status records are collected and optionally persisted to an
SQLite database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, err := config.NewAppConfig(configFile)
		if err != nil {
			return err
		}
		appCfg.Cli.Mode = config.ModeRun

		if cmd.Flags().Changed("topology") {
			appCfg.Cli.TopologyFile = runTopologyFile
		}
		if cmd.Flags().Changed("dbPath") {
			appCfg.Cli.DbPath = runDbPath
		}
		if cmd.Flags().Changed("monitoring") {
			appCfg.Cli.Monitoring = runMonitoring
		}
		if cmd.Flags().Changed("input") {
			appCfg.Cli.Inputs = runInputs
		}

		if err := appCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration for run mode: %w", err)
		}
		return cli.NewOrchestrator(appCfg).Run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runTopologyFile, "topology", "t", "", "Topology file (.json, .yaml or .yml).")
	runCmd.Flags().StringVar(&runDbPath, "dbPath", "", "SQLite file for persisting monitoring records.")
	runCmd.Flags().BoolVar(&runMonitoring, "monitoring", false, "Enable monitoring record collection.")
	runCmd.Flags().IntSliceVar(&runInputs, "input", nil, "Pulse intensities fed to input port 0, in order.")
}
