package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dirsnap/dirsnap/internal/output"
	"github.com/dirsnap/dirsnap/internal/scanner"
	"github.com/dirsnap/dirsnap/internal/stats"

	"github.com/spf13/cobra"
)

// Flag variables for the scan command.
var (
	outputFormat string
	outputFile   string
	showStats    bool
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Produce a snapshot document for a directory tree",
	Long: `Scan a directory tree and emit a single snapshot document.

If no path is provided, scans the current directory. A leading ~ is
expanded to the home directory.

The document is the entry tree on success, or a single error object
when the path cannot be resolved or does not exist. Either way the
command exits 0: an error document is a valid result. Diagnostics go
to stderr and are never mixed into the document.

Traversal policy is fixed: depth is bounded, symlink cycles are
reported instead of followed, and virtual system paths (proc, sys,
dev, run), VCS metadata (.git, .svn, .hg) and build caches
(node_modules, __pycache__, .cache, tmp) are pruned. Hidden entries
are included and annotated.

Exit codes:
  0 - A document was emitted (including error documents)
  1 - Invalid flags or the output file could not be written

Examples:
  dirsnap scan                        # Snapshot current directory as JSON
  dirsnap scan ~/projects             # Snapshot a specific directory
  dirsnap scan --format=yaml          # Output YAML to stdout
  dirsnap scan --output=snap.json     # Write JSON document to file
  dirsnap scan --output=snap.yaml     # Write YAML document to file
  dirsnap scan --stats                # Show traversal statistics on stderr
  dirsnap scan -o snap.json --stats   # Document to file, stats JSON to stdout

Note: --format and --output are mutually exclusive.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&outputFormat, "format", "f", "",
		"Output format for stdout: json, yaml (default json)")
	scanCmd.Flags().StringVarP(&outputFile, "output", "o", "",
		"Write document to file (format inferred from extension: .json, .yaml, .yml)")
	scanCmd.Flags().BoolVar(&showStats, "stats", false,
		"Show traversal statistics (stderr; JSON on stdout with --output)")
}

// runScan is the main entry point for the scan command.
func runScan(_ *cobra.Command, args []string) {
	exitOnError(validateScanFlags(), "Invalid flags")

	s, err := scanner.New(scanner.DefaultPolicy())
	exitOnError(err, "Invalid policy")

	doc := s.Scan(getPathArg(args))

	if doc.Err != nil {
		fmt.Fprintf(os.Stderr, "dirsnap: %s\n", doc.Err.Error)
	}

	routeOutput(doc)

	if showStats {
		emitStats(s.Stats())
	}
}

// emitStats routes statistics so they never share a channel with the
// document: human-readable on stderr while stdout carries the document,
// machine-readable JSON on stdout once the document went to a file.
func emitStats(perf *stats.Stats) {
	if outputFile == "" {
		fmt.Fprint(os.Stderr, perf.String())
		return
	}
	data, err := marshalStats(perf)
	exitOnError(err, "Error formatting stats")
	fmt.Println(string(data))
}

// marshalStats renders the statistics as an indented JSON object.
func marshalStats(perf *stats.Stats) ([]byte, error) {
	return json.MarshalIndent(perf.ToJSON(), "", "  ")
}

// exitOnError prints an error message and exits if err is not nil.
func exitOnError(err error, message string) {
	if err != nil {
		if message != "" {
			fmt.Fprintf(os.Stderr, "%s: %v\n", message, err)
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(1)
	}
}

// getPathArg returns the path argument or "." as default.
func getPathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// validateScanFlags checks for invalid flag combinations.
func validateScanFlags() error {
	if outputFormat != "" && outputFile != "" {
		return fmt.Errorf("--format and --output are mutually exclusive; " +
			"use --format for stdout output, or --output for file output")
	}

	if outputFormat != "" && !output.IsValidFormat(outputFormat) {
		return fmt.Errorf("invalid format %q; valid formats: %s",
			outputFormat, strings.Join(output.ValidFormats(), ", "))
	}

	return nil
}

// routeOutput writes the document to stdout or the requested file.
func routeOutput(doc *scanner.Document) {
	if outputFile != "" {
		if err := output.WriteToFile(doc, outputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote snapshot to %s\n", outputFile)
		return
	}

	format := output.Format(strings.ToLower(outputFormat))
	if outputFormat == "" {
		format = output.FormatJSON
	}

	data, err := output.FormatDocument(doc, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
