// Package scanner produces a structured, bounded snapshot of a
// filesystem subtree. A single depth-first pass builds a tree of
// entries while defending against symlink cycles, runaway depth,
// permission failures and virtual system paths; failures on one path
// degrade that entry instead of aborting the scan.
package scanner

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dirsnap/dirsnap/internal/stats"
)

// Scanner performs one snapshot scan at a time. It is not safe for
// concurrent use: the visited set belongs to the in-flight Scan call.
type Scanner struct {
	policy  *compiledPolicy
	visited map[string]struct{}
	root    string
	perf    *stats.Stats
	diag    io.Writer

	// statSize reads file metadata after classification; swappable in
	// tests to exercise the vanished-file path.
	statSize func(string) (os.FileInfo, error)
}

// New creates a Scanner with the given policy. It returns an error if
// the policy is invalid (negative depth, malformed exclude pattern).
func New(policy Policy) (*Scanner, error) {
	cp, err := compilePolicy(policy)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		policy:   cp,
		perf:     stats.New(),
		diag:     os.Stderr,
		statSize: os.Stat,
	}, nil
}

// SetDiagnostics redirects side-channel diagnostic messages, which go
// to stderr by default. The primary document is never written here.
func (s *Scanner) SetDiagnostics(w io.Writer) {
	s.diag = w
}

// Stats returns the metrics recorded by the most recent Scan.
func (s *Scanner) Stats() *stats.Stats {
	return s.perf
}

// Scan resolves rootInput and builds the snapshot document. It never
// returns an error: resolution failure and a missing root produce an
// ErrorDocument, everything else produces a tree in which per-path
// failures are contained as degraded entries.
func (s *Scanner) Scan(rootInput string) *Document {
	s.visited = make(map[string]struct{})
	s.perf.Begin()
	defer s.perf.Finish()

	root, err := resolveRoot(rootInput)
	if err != nil {
		return &Document{Err: &ErrorDocument{
			Error: fmt.Sprintf("cannot resolve path %q: %v", rootInput, err),
			Path:  rootInput,
		}}
	}
	s.root = root

	if _, err := os.Stat(root); err != nil && errors.Is(err, fs.ErrNotExist) {
		parentExists := isDir(filepath.Dir(root))
		return &Document{Err: &ErrorDocument{
			Error:        fmt.Sprintf("directory not found: %s", root),
			Status:       "not_found",
			Path:         root,
			ParentExists: &parentExists,
		}}
	}

	// Exclusion of the root itself is an informative result, not a
	// failure: a degraded directory entry, in contrast to descendant
	// exclusions which are pruned silently.
	if s.policy.excluded(root, s.root) {
		s.perf.Excluded++
		return &Document{Root: &Entry{
			Name:     filepath.Base(root),
			Path:     root,
			Kind:     KindDirectory,
			Children: []*Entry{},
			Excluded: true,
		}}
	}

	entry := s.visit(root, 0)
	if entry == nil {
		return &Document{Err: &ErrorDocument{
			Error: fmt.Sprintf("failed to scan %s", root),
			Path:  root,
		}}
	}
	return &Document{Root: entry}
}

// resolveRoot expands a leading ~ and converts the input to an
// absolute, cleaned path.
func resolveRoot(input string) (string, error) {
	path := input
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home directory: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, path[2:])
		}
	}
	return filepath.Abs(path)
}

// isDir reports whether path exists and is a directory.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// visit is the recursive traversal frame. It returns nil when the path
// contributes nothing to its parent: pruned by policy, or skipped
// because its canonical form could not be resolved. Every other
// failure is contained here and returned as a degraded entry.
func (s *Scanner) visit(path string, depth int) *Entry {
	name := filepath.Base(path)
	hidden := depth > 0 && strings.HasPrefix(name, ".")
	if hidden && !s.policy.includeHidden {
		s.perf.Excluded++
		return nil
	}

	if depth > 0 && s.policy.excluded(path, s.root) {
		s.perf.Excluded++
		return nil
	}

	if depth > s.policy.maxDepth {
		s.perf.MaxDepthHits++
		s.perf.RecordEntry(depth)
		s.perf.Directories++
		return &Entry{
			Name:            name,
			Path:            path,
			Kind:            KindDirectory,
			Children:        []*Entry{},
			MaxDepthReached: true,
			Hidden:          hidden,
		}
	}

	// Cycle detection works on canonical (symlink-resolved) paths so a
	// loop through any number of indirections repeats on the first
	// revisited target. Resolution failure (broken link, permission
	// while resolving) skips the path.
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		fmt.Fprintf(s.diag, "dirsnap: skipping %s: %v\n", path, err)
		s.perf.Skipped++
		return nil
	}
	if _, seen := s.visited[canonical]; seen {
		s.perf.RecordEntry(depth)
		s.perf.Cycles++
		return &Entry{
			Name:          name,
			Path:          path,
			Kind:          KindSymlink,
			Target:        canonical,
			CycleDetected: true,
			Hidden:        hidden,
		}
	}
	s.visited[canonical] = struct{}{}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(s.diag, "dirsnap: cannot classify %s: %v\n", path, err)
		s.perf.RecordEntry(depth)
		s.perf.Unknown++
		s.perf.Errors++
		return &Entry{
			Name:   name,
			Path:   path,
			Kind:   KindUnknown,
			Error:  err.Error(),
			Hidden: hidden,
		}
	}

	switch {
	case info.Mode().IsRegular():
		return s.fileEntry(path, name, depth, hidden)
	case info.IsDir():
		return s.dirEntry(path, name, depth, hidden)
	default:
		// Sockets, devices, FIFOs.
		s.perf.RecordEntry(depth)
		s.perf.Unknown++
		return &Entry{Name: name, Path: path, Kind: KindUnknown, Hidden: hidden}
	}
}

// fileEntry builds a file entry. The size is read at metadata time;
// the file can vanish between classification and here, in which case
// the entry survives with size 0 and a stat_error annotation.
func (s *Scanner) fileEntry(path, name string, depth int, hidden bool) *Entry {
	s.perf.RecordEntry(depth)
	s.perf.Files++

	e := &Entry{Name: name, Path: path, Kind: KindFile, Hidden: hidden}
	var size int64
	if info, err := s.statSize(path); err != nil {
		fmt.Fprintf(s.diag, "dirsnap: cannot stat %s: %v\n", path, err)
		e.StatError = err.Error()
		s.perf.Errors++
	} else {
		size = info.Size()
	}
	e.Size = &size
	return e
}

// dirEntry builds a directory entry and recurses into its children.
// Enumeration failure degrades the entry to empty children with an
// annotation; it never fails the parent.
func (s *Scanner) dirEntry(path, name string, depth int, hidden bool) *Entry {
	s.perf.RecordEntry(depth)
	s.perf.Directories++

	e := &Entry{
		Name:     name,
		Path:     path,
		Kind:     KindDirectory,
		Children: []*Entry{},
		Hidden:   hidden,
	}

	dirents, err := os.ReadDir(path)
	if err != nil {
		fmt.Fprintf(s.diag, "dirsnap: cannot list %s: %v\n", path, err)
		s.perf.Errors++
		if errors.Is(err, fs.ErrPermission) {
			e.PermissionError = true
		} else {
			e.Error = err.Error()
		}
		return e
	}

	for _, d := range dirents {
		child := s.visit(filepath.Join(path, d.Name()), depth+1)
		if child != nil {
			e.Children = append(e.Children, child)
		}
	}
	sortChildren(e.Children)
	return e
}
