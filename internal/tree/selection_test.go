package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(req *RunRequest) []string {
	var out []string
	for _, c := range req.Cases {
		out = append(out, c.Label)
	}
	return out
}

func TestSelect(t *testing.T) {
	tr := newTestTree()
	a := tr.AddFile("/project/a_tests.h")
	b := tr.AddFile("/project/b_tests.h")
	require.NoError(t, tr.RebuildFile(a, "void t1() {}\n// TEST GROUP g\nvoid t2() {}\nvoid skip_me() {}\n"))
	require.NoError(t, tr.RebuildFile(b, "void t3() {}\n"))

	t.Run("all files in order", func(t *testing.T) {
		req := tr.Select(SelectOptions{})
		assert.Equal(t, []string{"t1", "t2", "skip_me", "t3"}, labels(req))
	})

	t.Run("duplicates are removed", func(t *testing.T) {
		first := tr.Cases(a)[0]
		req := tr.Select(SelectOptions{Include: []NodeID{NodeID(first.ID), a, a}})
		assert.Equal(t, []string{"t1", "t2", "skip_me"}, labels(req))
	})

	t.Run("exclusion set", func(t *testing.T) {
		var skip NodeID
		for _, c := range tr.Cases(a) {
			if c.Label == "skip_me" {
				skip = NodeID(c.ID)
			}
		}
		req := tr.Select(SelectOptions{Exclude: []NodeID{skip, b}})
		assert.Equal(t, []string{"t1", "t2"}, labels(req))
		assert.True(t, req.Exclude[skip])
	})

	t.Run("name and file filters", func(t *testing.T) {
		req := tr.Select(SelectOptions{NameFilter: "t*"})
		assert.Equal(t, []string{"t1", "t2", "t3"}, labels(req))

		req = tr.Select(SelectOptions{FileFilter: "b_*"})
		assert.Equal(t, []string{"t3"}, labels(req))
	})

	t.Run("stale ids select nothing", func(t *testing.T) {
		old := tr.Cases(b)[0]
		require.NoError(t, tr.RebuildFile(b, "void t3() {}\n"))
		req := tr.Select(SelectOptions{Include: []NodeID{NodeID(old.ID)}})
		assert.Empty(t, req.Cases)
	})
}

func TestSelect_ResolvesFilesLazily(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "unit_tests.h")
	require.NoError(t, os.WriteFile(good, []byte("void lazy() {}\n"), 0644))

	tr := newTestTree()
	id := tr.AddFile(good)
	tr.AddFile(filepath.Join(dir, "missing_tests.h"))

	n, _ := tr.Node(id)
	require.False(t, n.Resolved)

	req := tr.Select(SelectOptions{})
	assert.Equal(t, []string{"lazy"}, labels(req))

	n, _ = tr.Node(id)
	assert.True(t, n.Resolved)
}
