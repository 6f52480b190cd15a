package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathTreeInsertAndWalk(t *testing.T) {
	var tree PathTree
	recs := []*FileRecord{
		{Path: "top/sub/b.bin"},
		{Path: "top/a.bin"},
		{Path: "top/sub/a.bin"},
	}
	for _, r := range recs {
		require.NoError(t, tree.Insert(r))
	}

	var visited []string
	tree.Walk(func(path []string, node *PathNode) {
		name := strings.Join(path, "/")
		if node.IsDir() {
			name += "/"
		}
		visited = append(visited, name)
	})

	// Depth-first, names sorted within each directory.
	assert.Equal(t, []string{
		"top/",
		"top/a.bin",
		"top/sub/",
		"top/sub/a.bin",
		"top/sub/b.bin",
	}, visited)
}

func TestPathTreeDuplicatePath(t *testing.T) {
	var tree PathTree
	require.NoError(t, tree.Insert(&FileRecord{Path: "top/a.bin"}))
	err := tree.Insert(&FileRecord{Path: "top/a.bin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathCollision)
}

func TestPathTreeFileDirectoryClash(t *testing.T) {
	var tree PathTree
	require.NoError(t, tree.Insert(&FileRecord{Path: "top/a"}))

	// A file cannot become a directory.
	err := tree.Insert(&FileRecord{Path: "top/a/b.bin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathCollision)

	// A directory cannot become a file.
	require.NoError(t, tree.Insert(&FileRecord{Path: "top/dir/c.bin"}))
	err = tree.Insert(&FileRecord{Path: "top/dir"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathCollision)
}

func TestPathTreeLookup(t *testing.T) {
	var tree PathTree
	rec := &FileRecord{Path: "top/sub/a.bin", Length: 42}
	require.NoError(t, tree.Insert(rec))

	n := tree.Root().Child("top").Child("sub").Child("a.bin")
	require.NotNil(t, n)
	assert.False(t, n.IsDir())
	assert.Equal(t, rec, n.File())

	assert.Nil(t, tree.Root().Child("missing"))
}

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "----", Flags(0).String())
	assert.Equal(t, "-x--", FlagExecutable.String())
	assert.Equal(t, "p-hl", (FlagPad | FlagHidden | FlagSymlink).String())
}

func TestFlagsAttrRoundTrip(t *testing.T) {
	f := FlagExecutable | FlagHidden
	assert.Equal(t, "xh", f.Attr())
	assert.Equal(t, f, ParseAttr("xh"))
	assert.Equal(t, Flags(0), ParseAttr("zq"))
	assert.Equal(t, FlagSymlink|FlagPad, ParseAttr("lp"))
}

func TestValidPieceSize(t *testing.T) {
	assert.True(t, ValidPieceSize(16384))
	assert.True(t, ValidPieceSize(1<<20))
	assert.False(t, ValidPieceSize(8192))
	assert.False(t, ValidPieceSize(0))
	assert.False(t, ValidPieceSize(16384+1))
	assert.False(t, ValidPieceSize(3*16384))
}
