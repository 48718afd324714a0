package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set by main.go via SetVersion.
var version = "dev"

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "dirsnap",
	Short:   "A structured snapshot tool for directory trees",
	Version: version,
	Long: `Dirsnap is a CLI tool that produces a structured, bounded snapshot
of a directory tree as a single JSON or YAML document.

The traversal is defensive: symlink cycles are detected and reported,
depth is bounded, virtual system paths and build caches are pruned,
and permission failures degrade single entries instead of aborting
the scan.

Examples:
  dirsnap scan                # Snapshot the current directory
  dirsnap scan ~/projects     # Snapshot a specific directory
  dirsnap scan --format=yaml
  dirsnap interactive         # Browse a snapshot in a terminal UI`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1) //nolint:revive // deep-exit is acceptable for CLI entry points
	}
}
