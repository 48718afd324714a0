package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultMaxDepth is how far below the root the scan descends before
// emitting a max_depth_reached placeholder.
const DefaultMaxDepth = 5

// defaultDenySegments are path segments that are never traversed:
// virtual kernel filesystems, version-control metadata, build caches
// and temp directories. Matching is on whole segments, so a directory
// named "systmp" is not caught by "sys" or "tmp".
var defaultDenySegments = []string{
	"proc",
	"sys",
	"dev",
	"run",
	".git",
	".svn",
	".hg",
	"node_modules",
	"__pycache__",
	".cache",
	"tmp",
}

// Policy is the immutable traversal configuration for a Scanner.
// The zero value is not useful; start from DefaultPolicy.
type Policy struct {
	// MaxDepth is the deepest level visited, with the root at 0.
	MaxDepth int

	// DenySegments prunes any path containing one of these as a whole
	// path segment. Pruned paths contribute no entry at all.
	DenySegments []string

	// ExcludeGlobs prunes paths whose root-relative slash path matches
	// any of these patterns ('/' is the glob separator).
	ExcludeGlobs []string

	// IncludeHidden controls dot-prefixed names. When true (the
	// default) they are included and annotated hidden; when false they
	// are pruned outright, the pre-annotation behavior.
	IncludeHidden bool
}

// DefaultPolicy returns the documented fixed policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxDepth:      DefaultMaxDepth,
		DenySegments:  defaultDenySegments,
		ExcludeGlobs:  nil,
		IncludeHidden: true,
	}
}

// compiledPolicy is the validated, lookup-friendly form of a Policy.
type compiledPolicy struct {
	maxDepth      int
	deny          map[string]struct{}
	globs         []compiledGlob
	includeHidden bool
}

// compiledGlob keeps the original pattern string for diagnostics.
type compiledGlob struct {
	pattern  glob.Glob
	original string
}

// compilePolicy validates the policy and compiles its glob patterns.
func compilePolicy(p Policy) (*compiledPolicy, error) {
	if p.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must be >= 0, got %d", p.MaxDepth)
	}

	cp := &compiledPolicy{
		maxDepth:      p.MaxDepth,
		deny:          make(map[string]struct{}, len(p.DenySegments)),
		includeHidden: p.IncludeHidden,
	}

	for _, seg := range p.DenySegments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		cp.deny[seg] = struct{}{}
	}

	for _, pat := range p.ExcludeGlobs {
		pat = strings.TrimSpace(pat)
		if pat == "" {
			continue
		}
		g, err := glob.Compile(pat, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pat, err)
		}
		cp.globs = append(cp.globs, compiledGlob{pattern: g, original: pat})
	}

	return cp, nil
}

// excluded reports whether path is pruned by policy. root is the
// resolved scan root used to derive the relative path for glob
// matching; segment matching always runs against the full path.
func (cp *compiledPolicy) excluded(path, root string) bool {
	if len(cp.deny) > 0 {
		for _, seg := range strings.Split(path, string(filepath.Separator)) {
			if seg == "" {
				continue
			}
			if _, ok := cp.deny[seg]; ok {
				return true
			}
		}
	}

	if len(cp.globs) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range cp.globs {
		if g.pattern.Match(rel) {
			return true
		}
	}
	return false
}
