package output

import (
	"gopkg.in/yaml.v3"

	"github.com/dirsnap/dirsnap/internal/scanner"
)

// YAMLFormatter formats snapshot documents as YAML.
type YAMLFormatter struct{}

// Format implements Formatter.
func (*YAMLFormatter) Format(doc *scanner.Document) ([]byte, error) {
	return yaml.Marshal(doc)
}
