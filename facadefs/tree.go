package facadefs

import (
	"fmt"

	"github.com/Zaphodious/oosikle-app/data"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/btree"
)

// DirTreeNode is a snapshot of one directory and all of its descendants. It is
// built once from catalog queries and never updated; callers re-query for a
// fresh tree. Files and subdirectories are keyed by name and iterate in name
// order.
type DirTreeNode struct {
	// Path is the normalized path of this directory ("" for the root).
	Path    string
	Files   *btree.Map[string, *data.FileRecord]
	Subdirs *btree.Map[string, *DirTreeNode]
}

func NewDirTreeNode(dirpath string) *DirTreeNode {
	return &DirTreeNode{
		Path:    dirpath,
		Files:   btree.NewMap[string, *data.FileRecord](0),
		Subdirs: btree.NewMap[string, *DirTreeNode](0),
	}
}

// DirItem is the result of a path lookup: exactly one of File and Dir is set.
type DirItem struct {
	File *data.FileRecord
	Dir  *DirTreeNode
}

func (i DirItem) IsDir() bool {
	return i.Dir != nil
}

// Name returns the file name or the directory's leaf name.
func (i DirItem) Name() string {
	if i.Dir != nil {
		return data.Leaf(i.Dir.Path)
	}
	return i.File.Name
}

// FlatEntry pairs a file with its path relative to the node it was flattened from.
type FlatEntry struct {
	Path string
	File *data.FileRecord
}

// GetAtPath resolves a path relative to this node. Intermediate segments must
// name subdirectories. When the final segment names both a file and a
// subdirectory, the file wins.
func (n *DirTreeNode) GetAtPath(p string) (DirItem, error) {
	parents, final, err := data.SplitLookupPath(p)
	if err != nil {
		return DirItem{}, err
	}

	node := n
	for _, seg := range parents {
		next, ok := node.Subdirs.Get(seg)
		if !ok {
			return DirItem{}, fmt.Errorf("%w: '%s' in '%s'", data.ErrNotExist, seg, node.Path)
		}
		node = next
	}

	if file, ok := node.Files.Get(final); ok {
		return DirItem{File: file}, nil
	}
	if dir, ok := node.Subdirs.Get(final); ok {
		return DirItem{Dir: dir}, nil
	}

	return DirItem{}, fmt.Errorf("%w: '%s' in '%s'", data.ErrNotExist, final, node.Path)
}

// SearchFilesWithNamesMatchingPattern matches pattern against the names of the
// files directly in this node.
func (n *DirTreeNode) SearchFilesWithNamesMatchingPattern(pattern string) ([]*data.FileRecord, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: '%s'", doublestar.ErrBadPattern, pattern)
	}

	var matches []*data.FileRecord
	n.searchNames(pattern, false, &matches)
	return matches, nil
}

// SearchFilesWithNamesMatchingPatternRecursive matches pattern against file names
// in this node and every descendant, in traversal order.
func (n *DirTreeNode) SearchFilesWithNamesMatchingPatternRecursive(pattern string) ([]*data.FileRecord, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: '%s'", doublestar.ErrBadPattern, pattern)
	}

	var matches []*data.FileRecord
	n.searchNames(pattern, true, &matches)
	return matches, nil
}

func (n *DirTreeNode) searchNames(pattern string, recursive bool, accum *[]*data.FileRecord) {
	n.Files.Scan(func(name string, file *data.FileRecord) bool {
		// The pattern was validated up front, Match cannot fail
		if ok, _ := doublestar.Match(pattern, name); ok {
			*accum = append(*accum, file)
		}
		return true
	})

	if !recursive {
		return
	}
	n.Subdirs.Scan(func(_ string, sub *DirTreeNode) bool {
		sub.searchNames(pattern, true, accum)
		return true
	})
}

// Flatten lists every file beneath this node with its path relative to it,
// depth first: a directory's files precede its subdirectories.
func (n *DirTreeNode) Flatten() []FlatEntry {
	entries := make([]FlatEntry, 0, n.Len())
	n.flatten("", &entries)
	return entries
}

func (n *DirTreeNode) flatten(prefix string, accum *[]FlatEntry) {
	n.Files.Scan(func(name string, file *data.FileRecord) bool {
		*accum = append(*accum, FlatEntry{Path: prefix + name, File: file})
		return true
	})
	n.Subdirs.Scan(func(name string, sub *DirTreeNode) bool {
		sub.flatten(prefix+name+"/", accum)
		return true
	})
}

// Glob is Flatten filtered by matching pattern against each relative path, so
// "**/*.md" finds markdown files at any depth.
func (n *DirTreeNode) Glob(pattern string) ([]FlatEntry, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: '%s'", doublestar.ErrBadPattern, pattern)
	}

	var matches []FlatEntry
	for _, entry := range n.Flatten() {
		if ok, _ := doublestar.Match(pattern, entry.Path); ok {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

// Len returns the number of files in this node and all descendants.
func (n *DirTreeNode) Len() int {
	count := n.Files.Len()
	n.Subdirs.Scan(func(_ string, sub *DirTreeNode) bool {
		count += sub.Len()
		return true
	})
	return count
}

// Equal reports whether both trees have the same shape and equal records.
func (n *DirTreeNode) Equal(o *DirTreeNode) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Path != o.Path || n.Files.Len() != o.Files.Len() || n.Subdirs.Len() != o.Subdirs.Len() {
		return false
	}

	equal := true
	n.Files.Scan(func(name string, file *data.FileRecord) bool {
		other, ok := o.Files.Get(name)
		equal = ok && file.Equal(other)
		return equal
	})
	if !equal {
		return false
	}

	n.Subdirs.Scan(func(name string, sub *DirTreeNode) bool {
		other, ok := o.Subdirs.Get(name)
		equal = ok && sub.Equal(other)
		return equal
	})
	return equal
}

// insert places rec below n, creating intermediate directories from its vfs
// path relative to n.Path.
func (n *DirTreeNode) insert(rec *data.FileRecord) {
	node := n
	rest := rec.VfsPath[len(n.Path):]
	for rest != "" {
		child, ok := data.ChildDir(node.Path, node.Path+rest)
		if !ok {
			break
		}
		name := data.Leaf(child)
		sub, exists := node.Subdirs.Get(name)
		if !exists {
			sub = NewDirTreeNode(child)
			node.Subdirs.Set(name, sub)
		}
		node = sub
		rest = rec.VfsPath[len(node.Path):]
	}

	node.Files.Set(rec.Name, rec)
}
