package cmd

import (
	"fmt"
	"os"

	"github.com/dirsnap/dirsnap/internal/scanner"
	"github.com/dirsnap/dirsnap/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// interactiveCmd represents the interactive command.
var interactiveCmd = &cobra.Command{
	Use:   "interactive [path]",
	Short: "Browse a directory snapshot in a terminal UI",
	Long: `Scan a directory tree and browse the snapshot interactively.

The tree opens with the root expanded. Directories can be expanded
and collapsed; degraded entries (cycles, permission errors, depth
cutoffs) carry badges.

Controls:
  ↑/↓ or j/k    Navigate
  enter/space   Expand or collapse a directory
  ←/h  →/l      Collapse / expand
  ?             Toggle help
  q             Quit`,
	Args: cobra.MaximumNArgs(1),
	Run:  runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

// runInteractive scans first, then hands the finished tree to the UI.
func runInteractive(_ *cobra.Command, args []string) {
	s, err := scanner.New(scanner.DefaultPolicy())
	exitOnError(err, "Invalid policy")

	doc := s.Scan(getPathArg(args))
	if doc.Err != nil {
		fmt.Fprintf(os.Stderr, "dirsnap: %s\n", doc.Err.Error)
		os.Exit(1)
	}

	p := tea.NewProgram(ui.New(doc.Root), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running interactive mode: %v\n", err)
		os.Exit(1)
	}
}
