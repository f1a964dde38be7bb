package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greyshaman/runen/cli"
	"github.com/greyshaman/runen/config"
)

var validateTopologyFile string

// validateCmd parses and validates a topology file without running it.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validates a topology file without building a network.",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, err := config.NewAppConfig(configFile)
		if err != nil {
			return err
		}
		appCfg.Cli.Mode = config.ModeValidate
		if cmd.Flags().Changed("topology") {
			appCfg.Cli.TopologyFile = validateTopologyFile
		}

		if err := appCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration for validate mode: %w", err)
		}
		return cli.NewOrchestrator(appCfg).Run()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateTopologyFile, "topology", "t", "", "Topology file (.json, .yaml or .yml).")
}
