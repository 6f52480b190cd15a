package manifest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrPathCollision marks two different files claiming the same path, or a
// file clashing with a directory of the same name. The torrent format cannot
// represent either, so a collision is fatal rather than silently resolved.
var ErrPathCollision = errors.New("path collision")

// PathNode is one node of a torrent's file tree: either a directory with
// name-ordered children or a leaf holding a file record. Exactly one of the
// two cases is populated.
type PathNode struct {
	children map[string]*PathNode
	file     *FileRecord
}

// IsDir reports whether the node is a directory.
func (n *PathNode) IsDir() bool { return n.file == nil }

// File returns the leaf's record, or nil for directories.
func (n *PathNode) File() *FileRecord { return n.file }

// Names returns the directory's child names in lexicographic order.
func (n *PathNode) Names() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Child returns the named child, or nil.
func (n *PathNode) Child(name string) *PathNode { return n.children[name] }

// PathTree arranges file records by their slash-separated paths.
type PathTree struct {
	root PathNode
}

// Root returns the tree's root directory node.
func (t *PathTree) Root() *PathNode { return &t.root }

// Insert places rec at its slash-separated path, creating intermediate
// directories. Inserting under a file, over a directory, or onto an occupied
// leaf returns ErrPathCollision.
func (t *PathTree) Insert(rec *FileRecord) error {
	parts := strings.Split(rec.Path, "/")
	node := &t.root
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("%w: empty element in %q", ErrPathCollision, rec.Path)
		}
		if node.file != nil {
			return fmt.Errorf("%w: %q is a file, not a directory", ErrPathCollision, strings.Join(parts[:i], "/"))
		}
		if node.children == nil {
			node.children = make(map[string]*PathNode)
		}
		child, ok := node.children[part]
		if !ok {
			child = &PathNode{}
			node.children[part] = child
		}
		node = child
	}
	if node.file != nil || node.children != nil {
		return fmt.Errorf("%w: %q", ErrPathCollision, rec.Path)
	}
	node.file = rec
	return nil
}

// Walk visits every node except the root in depth-first, name-sorted order.
// For directories rec is nil.
func (t *PathTree) Walk(fn func(path []string, node *PathNode)) {
	t.root.walk(nil, fn)
}

func (n *PathNode) walk(prefix []string, fn func(path []string, node *PathNode)) {
	for _, name := range n.Names() {
		child := n.children[name]
		path := append(append([]string(nil), prefix...), name)
		fn(path, child)
		if child.IsDir() {
			child.walk(path, fn)
		}
	}
}
