package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greyshaman/runen/cli"
	"github.com/greyshaman/runen/config"
)

var convertBits []int

// convertCmd runs the built-in two-bit to one-hot converter demo.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Runs the two-bit to one-hot converter demo network.",
	Long: `Wires the fixed demonstration network that converts a binary input
into a one-hot output: feeding intensity 0 lights output port 0,
feeding intensity 1 lights output port 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, err := config.NewAppConfig(configFile)
		if err != nil {
			return err
		}
		appCfg.Cli.Mode = config.ModeConvert
		if cmd.Flags().Changed("bit") {
			appCfg.Cli.Inputs = convertBits
		}

		if err := appCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration for convert mode: %w", err)
		}
		return cli.NewOrchestrator(appCfg).Run()
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().IntSliceVar(&convertBits, "bit", []int{0, 1}, "Bit values to feed, in order.")
}
