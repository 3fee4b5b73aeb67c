// Package facadefs presents the flat, path tagged records of a catalog as a
// hierarchical directory tree. Every catalog query runs as a closure on the
// shrine that owns the store.
package facadefs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zaphodious/oosikle-app/catalog"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/Zaphodious/oosikle-app/log"
	"github.com/Zaphodious/oosikle-app/metrics"
	"github.com/Zaphodious/oosikle-app/shrine"
)

type FacadeFS struct {
	handle *shrine.Handle[catalog.Store]
	logger *log.Logger
}

type Option func(*FacadeFS)

func WithLogger(logger *log.Logger) Option {
	return func(fs *FacadeFS) {
		if logger != nil {
			fs.logger = logger
		}
	}
}

func New(handle *shrine.Handle[catalog.Store], opts ...Option) *FacadeFS {
	fs := &FacadeFS{
		handle: handle,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(fs)
	}
	fs.logger = fs.logger.Named("facadefs")

	return fs
}

// GetDirectoriesAt returns the immediate child directories of path.
func (fs *FacadeFS) GetDirectoriesAt(ctx context.Context, path string) ([]string, error) {
	dirpath := data.NormalizeDir(path)

	return shrine.Send(ctx, fs.handle, func(store catalog.Store) ([]string, error) {
		return store.DirectoriesUnder(ctx, dirpath)
	})
}

// GetFilesAt returns the files placed directly in path, excluding descendants.
func (fs *FacadeFS) GetFilesAt(ctx context.Context, path string) ([]*data.FileRecord, error) {
	dirpath := data.NormalizeDir(path)

	return shrine.Send(ctx, fs.handle, func(store catalog.Store) ([]*data.FileRecord, error) {
		return store.FilesAt(ctx, dirpath)
	})
}

// GetDirTreeAt builds the whole subtree rooted at path. Stores that can list a
// subtree answer in one query; others are walked one directory at a time.
func (fs *FacadeFS) GetDirTreeAt(ctx context.Context, path string) (*DirTreeNode, error) {
	start := time.Now()
	dirpath := data.NormalizeDir(path)

	records, listed, err := fs.filesUnder(ctx, dirpath)
	if err != nil {
		return nil, err
	}

	var tree *DirTreeNode
	if listed {
		tree = NewDirTreeNode(dirpath)
		for _, rec := range records {
			tree.insert(rec)
		}
	} else {
		if tree, err = fs.walk(ctx, dirpath); err != nil {
			return nil, err
		}
	}

	files := tree.Len()
	metrics.RecordTreeBuild(time.Since(start), files)
	fs.logger.Debug("Built tree at '%s' with %d files in %s", dirpath, files, time.Since(start))

	return tree, nil
}

// GetRoot builds the tree of the whole catalog.
func (fs *FacadeFS) GetRoot(ctx context.Context) (*DirTreeNode, error) {
	return fs.GetDirTreeAt(ctx, "")
}

type subtree struct {
	records []*data.FileRecord
	listed  bool
}

func (fs *FacadeFS) filesUnder(ctx context.Context, dirpath string) ([]*data.FileRecord, bool, error) {
	result, err := shrine.Send(ctx, fs.handle, func(store catalog.Store) (subtree, error) {
		lister, ok := store.(catalog.SubtreeLister)
		if !ok {
			return subtree{}, nil
		}

		records, err := lister.FilesUnder(ctx, dirpath)
		return subtree{records: records, listed: true}, err
	})

	return result.records, result.listed, err
}

// walk terminates because every child path returned by the store is strictly
// longer than its parent.
func (fs *FacadeFS) walk(ctx context.Context, dirpath string) (*DirTreeNode, error) {
	node := NewDirTreeNode(dirpath)

	files, err := fs.GetFilesAt(ctx, dirpath)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		node.Files.Set(file.Name, file)
	}

	children, err := fs.GetDirectoriesAt(ctx, dirpath)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if len(child) <= len(dirpath) || !strings.HasPrefix(child, dirpath) {
			return nil, fmt.Errorf("%w: '%s' is not below '%s'", data.ErrInvalidPath, child, dirpath)
		}

		sub, err := fs.walk(ctx, child)
		if err != nil {
			return nil, err
		}
		node.Subdirs.Set(data.Leaf(child), sub)
	}

	return node, nil
}

// Stat resolves a single item without building the tree around it. Files take
// precedence over directories of the same name; a directory item carries its
// full subtree.
func (fs *FacadeFS) Stat(ctx context.Context, path string) (DirItem, error) {
	parents, final, err := data.SplitLookupPath(path)
	if err != nil {
		return DirItem{}, err
	}
	parent := data.NormalizeDir(strings.Join(parents, "/"))

	files, err := fs.GetFilesAt(ctx, parent)
	if err != nil {
		return DirItem{}, err
	}
	for _, file := range files {
		if file.Name == final {
			return DirItem{File: file}, nil
		}
	}

	dirs, err := fs.GetDirectoriesAt(ctx, parent)
	if err != nil {
		return DirItem{}, err
	}
	for _, dir := range dirs {
		if dir == parent+final+"/" {
			tree, err := fs.GetDirTreeAt(ctx, dir)
			if err != nil {
				return DirItem{}, err
			}
			return DirItem{Dir: tree}, nil
		}
	}

	return DirItem{}, fmt.Errorf("%w: '%s'", data.ErrNotExist, path)
}

// Glob builds the tree at dir and matches pattern against paths relative to it.
func (fs *FacadeFS) Glob(ctx context.Context, dir, pattern string) ([]FlatEntry, error) {
	tree, err := fs.GetDirTreeAt(ctx, dir)
	if err != nil {
		return nil, err
	}

	return tree.Glob(pattern)
}
