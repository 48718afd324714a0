package output

import (
	"encoding/json"

	"github.com/dirsnap/dirsnap/internal/scanner"
)

// JSONFormatter formats snapshot documents as indented JSON.
type JSONFormatter struct{}

// Format implements Formatter. The document's own marshaling decides
// between the entry-tree and error shapes.
func (*JSONFormatter) Format(doc *scanner.Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
