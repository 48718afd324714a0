// Package output provides formatting and file writing for snapshot
// documents. Exactly one serialized document is produced per scan,
// written as a single value rather than streamed.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dirsnap/dirsnap/internal/scanner"
)

// Format represents an output format type.
type Format string

const (
	// FormatJSON outputs as JSON. This is the default.
	FormatJSON Format = "json"
	// FormatYAML outputs as YAML.
	FormatYAML Format = "yaml"
)

// ValidFormats returns all valid format strings.
func ValidFormats() []string {
	return []string{
		string(FormatJSON),
		string(FormatYAML),
	}
}

// IsValidFormat checks if a format string is valid.
func IsValidFormat(s string) bool {
	switch Format(strings.ToLower(s)) {
	case FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// Formatter is the interface that output formatters implement.
type Formatter interface {
	Format(doc *scanner.Document) ([]byte, error)
}

// GetFormatter returns the appropriate formatter for a format.
func GetFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// FormatDocument formats a document using the specified format.
func FormatDocument(doc *scanner.Document, format Format) ([]byte, error) {
	formatter, err := GetFormatter(format)
	if err != nil {
		return nil, err
	}
	return formatter.Format(doc)
}

// InferFormat determines the output format from a filename extension.
func InferFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf(
			"cannot infer format from extension %q (supported: .json, .yaml, .yml)",
			ext,
		)
	}
}

// WriteToFile writes a formatted document to a file.
func WriteToFile(doc *scanner.Document, filename string) error {
	format, err := InferFormat(filename)
	if err != nil {
		return err
	}

	data, err := FormatDocument(doc, format)
	if err != nil {
		return fmt.Errorf("formatting document: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
