// Package commands provides the CLI commands for ccm.
package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command. Running it with a single path is the
// same as "ccm analyze <path>".
var RootCmd = &cobra.Command{
	Use:   "ccm <path>",
	Short: "ccm - DFS-based control-flow complexity",
	Long: `ccm walks the control-flow graph of every function depth-first and reports
the number of terminal blocks plus the number of edges that lead back to a
block the walk has already entered.

Commands:
  analyze     Report the complexity of every function in a file or directory
  cfg         Show the control-flow graph of one function
  history     Show recorded complexity of a function over time
  init        Create a configuration file interactively
  mcp         Serve the analysis over the Model Context Protocol

A file whose name matches a command (for example "cfg") is analysed with
"ccm analyze <path>".

Use "ccm [command] --help" for more information about a command.`,
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runAnalyze,
}

// Execute runs the root command with the given version.
func Execute(version string) error {
	RootCmd.Version = version
	return RootCmd.Execute()
}

func init() {
	RootCmd.SetVersionTemplate("ccm version {{.Version}}\n")

	RootCmd.PersistentFlags().String("config", "", "Config file path")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")
	addAnalyzeFlags(RootCmd)

	// Add subcommands
	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(cfgCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(mcpCmd)
}
