package scanner

import (
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPolicy is DefaultPolicy without the temp-directory segments:
// t.TempDir fixtures live under /tmp, which the real policy prunes.
func testPolicy() Policy {
	p := DefaultPolicy()
	p.DenySegments = []string{"proc", "sys", "dev", "run", ".git", "node_modules", "__pycache__"}
	return p
}

func newTestScanner(t *testing.T, p Policy) *Scanner {
	t.Helper()
	s, err := New(p)
	require.NoError(t, err)
	s.SetDiagnostics(io.Discard)
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}

// findChild returns the direct child with the given name, or nil.
func findChild(e *Entry, name string) *Entry {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestScan(t *testing.T) {
	t.Parallel()

	t.Run("BasicTree", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "hello")
		mkdir(t, filepath.Join(root, "sub"))
		writeFile(t, filepath.Join(root, "sub", "b.txt"), "world!")

		doc := newTestScanner(t, testPolicy()).Scan(root)
		require.True(t, doc.OK())

		e := doc.Root
		assert.Equal(t, KindDirectory, e.Kind)
		assert.Equal(t, filepath.Base(root), e.Name)
		assert.Equal(t, root, e.Path)
		require.Len(t, e.Children, 2)

		// Directories sort before files.
		sub := e.Children[0]
		assert.Equal(t, "sub", sub.Name)
		assert.Equal(t, KindDirectory, sub.Kind)
		require.Len(t, sub.Children, 1)
		assert.Equal(t, "b.txt", sub.Children[0].Name)
		require.NotNil(t, sub.Children[0].Size)
		assert.Equal(t, int64(6), *sub.Children[0].Size)

		file := e.Children[1]
		assert.Equal(t, "a.txt", file.Name)
		assert.Equal(t, KindFile, file.Kind)
		require.NotNil(t, file.Size)
		assert.Equal(t, int64(5), *file.Size)
		assert.Nil(t, file.Children)
	})

	t.Run("EmptyDirectoryHasEmptyChildren", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		mkdir(t, filepath.Join(root, "empty"))

		doc := newTestScanner(t, testPolicy()).Scan(root)
		require.True(t, doc.OK())

		empty := findChild(doc.Root, "empty")
		require.NotNil(t, empty)
		assert.NotNil(t, empty.Children)
		assert.Empty(t, empty.Children)

		data, err := json.Marshal(empty)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"children":[]`)
	})

	t.Run("Idempotence", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "a")
		mkdir(t, filepath.Join(root, "d1", "d2"))
		writeFile(t, filepath.Join(root, "d1", "b.txt"), "bb")

		s := newTestScanner(t, testPolicy())
		first, err := json.Marshal(s.Scan(root))
		require.NoError(t, err)
		second, err := json.Marshal(s.Scan(root))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
	})

	t.Run("NonExistentRoot", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		missing := filepath.Join(root, "nope")

		doc := newTestScanner(t, testPolicy()).Scan(missing)
		require.False(t, doc.OK())
		assert.Equal(t, "not_found", doc.Err.Status)
		assert.Equal(t, missing, doc.Err.Path)
		require.NotNil(t, doc.Err.ParentExists)
		assert.True(t, *doc.Err.ParentExists)

		data, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"error"`)
		assert.NotContains(t, string(data), `"children"`)
		assert.NotContains(t, string(data), `"kind"`)
	})

	t.Run("RootExcludedIsDegradedNotError", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		nm := filepath.Join(root, "node_modules")
		mkdir(t, filepath.Join(nm, "pkg"))

		doc := newTestScanner(t, testPolicy()).Scan(nm)
		require.True(t, doc.OK())
		assert.True(t, doc.Root.Excluded)
		assert.Equal(t, KindDirectory, doc.Root.Kind)
		assert.NotNil(t, doc.Root.Children)
		assert.Empty(t, doc.Root.Children)
	})

	t.Run("ExclusionExactness", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		mkdir(t, filepath.Join(root, "systmp"))
		writeFile(t, filepath.Join(root, "systmp", "keep.txt"), "x")
		mkdir(t, filepath.Join(root, "node_modules", "dep"))
		writeFile(t, filepath.Join(root, "my-tmp-notes.txt"), "x")

		doc := newTestScanner(t, testPolicy()).Scan(root)
		require.True(t, doc.OK())

		// Substring hits are not exclusions.
		systmp := findChild(doc.Root, "systmp")
		require.NotNil(t, systmp)
		assert.Len(t, systmp.Children, 1)
		assert.NotNil(t, findChild(doc.Root, "my-tmp-notes.txt"))

		// Whole-segment hits prune the subtree silently.
		assert.Nil(t, findChild(doc.Root, "node_modules"))
		data, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "node_modules")
	})

	t.Run("HiddenIncludedAndAnnotated", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".secret"), "s")
		writeFile(t, filepath.Join(root, "plain.txt"), "p")

		doc := newTestScanner(t, testPolicy()).Scan(root)
		require.True(t, doc.OK())

		secret := findChild(doc.Root, ".secret")
		require.NotNil(t, secret)
		assert.True(t, secret.Hidden)
		plain := findChild(doc.Root, "plain.txt")
		require.NotNil(t, plain)
		assert.False(t, plain.Hidden)
	})

	t.Run("HiddenExcludedUnderLegacyPolicy", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".secret"), "s")
		writeFile(t, filepath.Join(root, "plain.txt"), "p")

		p := testPolicy()
		p.IncludeHidden = false
		doc := newTestScanner(t, p).Scan(root)
		require.True(t, doc.OK())
		assert.Nil(t, findChild(doc.Root, ".secret"))
		assert.NotNil(t, findChild(doc.Root, "plain.txt"))
	})

	t.Run("Ordering", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "b.txt"), "")
		writeFile(t, filepath.Join(root, "a.txt"), "")
		mkdir(t, filepath.Join(root, "Z"))
		mkdir(t, filepath.Join(root, "a"))

		doc := newTestScanner(t, testPolicy()).Scan(root)
		require.True(t, doc.OK())
		require.Len(t, doc.Root.Children, 4)

		var names []string
		for _, c := range doc.Root.Children {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"a", "Z", "a.txt", "b.txt"}, names)
		assert.Equal(t, KindDirectory, doc.Root.Children[0].Kind)
		assert.Equal(t, KindDirectory, doc.Root.Children[1].Kind)
		assert.Equal(t, KindFile, doc.Root.Children[2].Kind)
		assert.Equal(t, KindFile, doc.Root.Children[3].Kind)
	})

	t.Run("ZeroByteFileKeepsSize", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "empty.txt"), "")

		doc := newTestScanner(t, testPolicy()).Scan(root)
		require.True(t, doc.OK())

		empty := findChild(doc.Root, "empty.txt")
		require.NotNil(t, empty)
		require.NotNil(t, empty.Size)
		assert.Equal(t, int64(0), *empty.Size)

		data, err := json.Marshal(empty)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"size":0`)
	})

	t.Run("GlobExclude", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "app.log"), "x")
		writeFile(t, filepath.Join(root, "keep.txt"), "x")
		mkdir(t, filepath.Join(root, "skipme", "inner"))

		p := testPolicy()
		p.ExcludeGlobs = []string{"*.log", "skipme"}
		doc := newTestScanner(t, p).Scan(root)
		require.True(t, doc.OK())

		assert.Nil(t, findChild(doc.Root, "app.log"))
		assert.Nil(t, findChild(doc.Root, "skipme"))
		assert.NotNil(t, findChild(doc.Root, "keep.txt"))
	})

}

// No t.Parallel here: t.Setenv is incompatible with parallel tests.
func TestScanHomeExpansion(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, "f.txt"), "x")
	t.Setenv("HOME", home)

	doc := newTestScanner(t, testPolicy()).Scan("~")
	require.True(t, doc.OK())
	assert.Equal(t, home, doc.Root.Path)
	assert.NotNil(t, findChild(doc.Root, "f.txt"))
}

func TestScanUnresolvableInput(t *testing.T) {
	t.Setenv("HOME", "")

	doc := newTestScanner(t, testPolicy()).Scan("~/anything")
	require.False(t, doc.OK())
	assert.Equal(t, "~/anything", doc.Err.Path)
	assert.Contains(t, doc.Err.Error, "cannot resolve")
}

func TestScanCycles(t *testing.T) {
	t.Parallel()

	t.Run("SelfCycle", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "file.txt"), "x")
		require.NoError(t, os.Symlink(root, filepath.Join(root, "loop")))

		s := newTestScanner(t, testPolicy())
		doc := s.Scan(root)
		require.True(t, doc.OK())

		loop := findChild(doc.Root, "loop")
		require.NotNil(t, loop)
		assert.Equal(t, KindSymlink, loop.Kind)
		assert.True(t, loop.CycleDetected)
		assert.NotEmpty(t, loop.Target)
		assert.Nil(t, loop.Children)
		assert.Equal(t, 1, s.Stats().Cycles)
	})

	t.Run("AncestorCycle", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		mkdir(t, filepath.Join(root, "a", "b"))
		require.NoError(t, os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "a", "b", "up")))

		doc := newTestScanner(t, testPolicy()).Scan(root)
		require.True(t, doc.OK())

		a := findChild(doc.Root, "a")
		require.NotNil(t, a)
		b := findChild(a, "b")
		require.NotNil(t, b)
		up := findChild(b, "up")
		require.NotNil(t, up)
		assert.True(t, up.CycleDetected)
		assert.Equal(t, KindSymlink, up.Kind)
		assert.Nil(t, up.Children)
	})

	t.Run("SymlinkToAlreadyVisitedFile", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "x")
		// ReadDir order visits a.txt first, so the link repeats its
		// canonical path and is reported as a cycle.
		require.NoError(t, os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link")))

		doc := newTestScanner(t, testPolicy()).Scan(root)
		require.True(t, doc.OK())

		link := findChild(doc.Root, "link")
		require.NotNil(t, link)
		assert.True(t, link.CycleDetected)
		assert.Equal(t, KindSymlink, link.Kind)
	})

	t.Run("BrokenSymlinkSkippedSilently", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "ok.txt"), "x")
		require.NoError(t, os.Symlink(filepath.Join(root, "missing-target"), filepath.Join(root, "broken")))

		s := newTestScanner(t, testPolicy())
		doc := s.Scan(root)
		require.True(t, doc.OK())

		assert.Nil(t, findChild(doc.Root, "broken"))
		assert.NotNil(t, findChild(doc.Root, "ok.txt"))
		assert.Equal(t, 1, s.Stats().Skipped)
	})
}

func TestScanDepthBound(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdir(t, filepath.Join(root, "l1", "l2", "l3", "l4"))
	writeFile(t, filepath.Join(root, "l1", "l2", "l3", "l4", "deep.txt"), "x")

	p := testPolicy()
	p.MaxDepth = 2
	s := newTestScanner(t, p)
	doc := s.Scan(root)
	require.True(t, doc.OK())

	l1 := findChild(doc.Root, "l1")
	require.NotNil(t, l1)
	l2 := findChild(l1, "l2")
	require.NotNil(t, l2)
	assert.False(t, l2.MaxDepthReached)

	l3 := findChild(l2, "l3")
	require.NotNil(t, l3)
	assert.True(t, l3.MaxDepthReached)
	assert.Equal(t, KindDirectory, l3.Kind)
	assert.NotNil(t, l3.Children)
	assert.Empty(t, l3.Children)

	// Nothing beyond the boundary appears anywhere.
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "l4")
	assert.NotContains(t, string(data), "deep.txt")
	assert.Equal(t, 1, s.Stats().MaxDepthHits)
}

func TestScanPermissionResilience(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("running as root; permission checks are meaningless")
	}

	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	mkdir(t, locked)
	writeFile(t, filepath.Join(locked, "unreachable.txt"), "x")
	mkdir(t, filepath.Join(root, "open"))
	writeFile(t, filepath.Join(root, "open", "ok.txt"), "x")

	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() {
		_ = os.Chmod(locked, 0o755)
	})

	s := newTestScanner(t, testPolicy())
	doc := s.Scan(root)
	require.True(t, doc.OK())

	lockedEntry := findChild(doc.Root, "locked")
	require.NotNil(t, lockedEntry)
	assert.True(t, lockedEntry.PermissionError)
	assert.NotNil(t, lockedEntry.Children)
	assert.Empty(t, lockedEntry.Children)

	// Siblings are unaffected and fully expanded.
	open := findChild(doc.Root, "open")
	require.NotNil(t, open)
	require.Len(t, open.Children, 1)
	assert.Equal(t, "ok.txt", open.Children[0].Name)

	assert.GreaterOrEqual(t, s.Stats().Errors, 1)
}

func TestScanFileVanishesBeforeMetadata(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "fleeting.txt"), "x")

	// The metadata read fails after classification saw a regular file,
	// as when the file is deleted mid-scan.
	s := newTestScanner(t, testPolicy())
	s.statSize = func(string) (os.FileInfo, error) {
		return nil, fs.ErrNotExist
	}

	doc := s.Scan(root)
	require.True(t, doc.OK())

	f := findChild(doc.Root, "fleeting.txt")
	require.NotNil(t, f)
	assert.Equal(t, KindFile, f.Kind)
	assert.NotEmpty(t, f.StatError)
	require.NotNil(t, f.Size)
	assert.Equal(t, int64(0), *f.Size)
	assert.GreaterOrEqual(t, s.Stats().Errors, 1)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"size":0`)
	assert.Contains(t, string(data), `"stat_error"`)
}

func TestScanStats(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	writeFile(t, filepath.Join(root, "b.txt"), "x")
	mkdir(t, filepath.Join(root, "sub"))
	mkdir(t, filepath.Join(root, "node_modules"))

	s := newTestScanner(t, testPolicy())
	doc := s.Scan(root)
	require.True(t, doc.OK())

	perf := s.Stats()
	assert.Equal(t, 2, perf.Files)
	assert.Equal(t, 2, perf.Directories) // root + sub
	assert.Equal(t, 4, perf.Entries)
	assert.Equal(t, 1, perf.Excluded)
	assert.Equal(t, 1, perf.DeepestLevel)
	assert.False(t, perf.ScanEnd.IsZero())
}
