package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the tool version, set at build time.
var Version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "collection_search",
	Short: "Search item pools for the best-valued collections under a budget",
	Long: `collection_search - constrained best-collection search.

Picks a fixed number of items from each group of a primary feature so the
total cost stays within a budget, and keeps every collection whose value is
within a tolerance of the best found.

Commands:
  serve   run the HTTP server over a directory of persisted problems
  run     solve one problem from an item file or a definition file`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "collection_search v%s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(versionCmd)
}
