// Package cli wires the engine into a cobra command tree. Everything
// here is a consumer of the result contract; pass/fail policy stays
// with the caller.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "surge",
	Short:   "Load-testing and performance measurement engine",
	Version: version,
	Long: `Surge coordinates many concurrent simulated clients against a target
endpoint, enforces ramp-up and per-request timeouts, and reports latency
percentiles, throughput, and memory statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(benchCmd)
	RootCmd.AddCommand(leakCmd)
}
