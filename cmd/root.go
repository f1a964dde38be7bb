// Package cmd defines the cobra command tree of the runen CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags shared by every subcommand.
	configFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "runen",
	Short: "runen: a discrete-event spiking neural network runtime",
	Long: `runen runs graphs of concurrent neuron actors exchanging integer
pulses over broadcast channels. Networks are described by JSON or YAML
topology files; monitoring records can be collected and exported.

For details on a specific command, use: runen [command] --help`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called once from main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "configFile", "",
		"Path to a TOML file overriding the runtime parameters.")
}
