package scanner

import (
	"encoding/json"
	"slices"
	"strings"
)

// Kind classifies a filesystem object in the snapshot.
type Kind string

const (
	// KindFile is a regular file.
	KindFile Kind = "file"
	// KindDirectory is a directory.
	KindDirectory Kind = "directory"
	// KindSymlink is emitted for paths whose canonical form was already
	// visited in this scan (a symlink cycle).
	KindSymlink Kind = "symlink"
	// KindUnknown covers sockets, devices, FIFOs and paths whose
	// classification failed.
	KindUnknown Kind = "unknown"
)

// Entry is one node in the snapshot tree.
//
// Children is nil for anything that is not a directory and is serialized
// only when non-nil; a directory always carries a non-nil slice, so an
// empty directory produces "children": [] rather than omitting the key.
// JSON gets this from omitzero; YAML needs MarshalYAML because its
// omitempty collapses nil and empty slices.
// Size is set only for files and is present even when zero.
type Entry struct {
	Name     string   `json:"name"               yaml:"name"`
	Path     string   `json:"path"               yaml:"path"`
	Kind     Kind     `json:"kind"               yaml:"kind"`
	Size     *int64   `json:"size,omitempty"     yaml:"size,omitempty"`
	Children []*Entry `json:"children,omitzero"  yaml:"children"`

	// Annotations. Each marks a degraded or policy-affected entry; an
	// entry with none of these set was scanned cleanly.
	MaxDepthReached bool   `json:"max_depth_reached,omitempty" yaml:"max_depth_reached,omitempty"`
	CycleDetected   bool   `json:"cycle_detected,omitempty"    yaml:"cycle_detected,omitempty"`
	Target          string `json:"target,omitempty"            yaml:"target,omitempty"`
	Excluded        bool   `json:"excluded,omitempty"          yaml:"excluded,omitempty"`
	PermissionError bool   `json:"permission_error,omitempty"  yaml:"permission_error,omitempty"`
	Hidden          bool   `json:"hidden,omitempty"            yaml:"hidden,omitempty"`
	StatError       string `json:"stat_error,omitempty"        yaml:"stat_error,omitempty"`
	Error           string `json:"error,omitempty"             yaml:"error,omitempty"`
}

// Degraded reports whether the entry carries any failure annotation.
func (e *Entry) Degraded() bool {
	return e.PermissionError || e.StatError != "" || e.Error != ""
}

// MarshalYAML emits the children key only when the slice is non-nil,
// preserving the empty-vs-absent distinction that yaml's omitempty
// would collapse. The pointer indirection keeps a non-nil empty slice
// from being treated as empty.
func (e *Entry) MarshalYAML() (any, error) {
	type entryYAML struct {
		Name            string    `yaml:"name"`
		Path            string    `yaml:"path"`
		Kind            Kind      `yaml:"kind"`
		Size            *int64    `yaml:"size,omitempty"`
		Children        *[]*Entry `yaml:"children,omitempty"`
		MaxDepthReached bool      `yaml:"max_depth_reached,omitempty"`
		CycleDetected   bool      `yaml:"cycle_detected,omitempty"`
		Target          string    `yaml:"target,omitempty"`
		Excluded        bool      `yaml:"excluded,omitempty"`
		PermissionError bool      `yaml:"permission_error,omitempty"`
		Hidden          bool      `yaml:"hidden,omitempty"`
		StatError       string    `yaml:"stat_error,omitempty"`
		Error           string    `yaml:"error,omitempty"`
	}

	out := entryYAML{
		Name:            e.Name,
		Path:            e.Path,
		Kind:            e.Kind,
		Size:            e.Size,
		MaxDepthReached: e.MaxDepthReached,
		CycleDetected:   e.CycleDetected,
		Target:          e.Target,
		Excluded:        e.Excluded,
		PermissionError: e.PermissionError,
		Hidden:          e.Hidden,
		StatError:       e.StatError,
		Error:           e.Error,
	}
	if e.Children != nil {
		out.Children = &e.Children
	}
	return out, nil
}

// ErrorDocument is the top-level result when the scan could not produce
// a tree at all: unresolvable input or a root that does not exist.
type ErrorDocument struct {
	Error        string `json:"error"                   yaml:"error"`
	Status       string `json:"status,omitempty"        yaml:"status,omitempty"`
	Path         string `json:"path,omitempty"          yaml:"path,omitempty"`
	ParentExists *bool  `json:"parent_exists,omitempty" yaml:"parent_exists,omitempty"`
}

// Document is the single result of one scan invocation: either a root
// Entry tree or a top-level error, never both.
type Document struct {
	Root *Entry
	Err  *ErrorDocument
}

// OK reports whether the scan produced a tree.
func (d *Document) OK() bool {
	return d.Err == nil
}

// MarshalJSON serializes the document as exactly one of its two shapes.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d.Err != nil {
		return json.Marshal(d.Err)
	}
	return json.Marshal(d.Root)
}

// MarshalYAML mirrors MarshalJSON for the YAML encoder.
func (d *Document) MarshalYAML() (any, error) {
	if d.Err != nil {
		return d.Err, nil
	}
	return d.Root, nil
}

// compareEntries orders directories before everything else, then by
// case-folded name (locale-independent), with a byte-wise tiebreak so
// the order is total.
func compareEntries(a, b *Entry) int {
	aDir := a.Kind == KindDirectory
	bDir := b.Kind == KindDirectory
	if aDir != bDir {
		if aDir {
			return -1
		}
		return 1
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// sortChildren applies the stable child ordering in place.
func sortChildren(children []*Entry) {
	slices.SortStableFunc(children, compareEntries)
}
