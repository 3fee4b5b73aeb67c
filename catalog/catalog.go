// Package catalog defines the storage contract the virtual filesystem reads from
// and resolves catalog addresses into store constructors.
package catalog

import (
	"context"

	"github.com/Zaphodious/oosikle-app/catalog/consul"
	"github.com/Zaphodious/oosikle-app/catalog/memory"
	"github.com/Zaphodious/oosikle-app/catalog/postgres"
	"github.com/Zaphodious/oosikle-app/catalog/s3"
	"github.com/Zaphodious/oosikle-app/catalog/sqlite"
	"github.com/Zaphodious/oosikle-app/data"
)

// Store is the catalog of file records. Directory paths are always in normalized
// form: "" for the root, otherwise "a/b/". Implementations need not be safe for
// concurrent use; they are owned by a shrine.
type Store interface {
	// Name returns the identifier name defined for this store
	Name() string
	// DirectoriesUnder returns the deduplicated immediate child directories of
	// prefix. A directory exists as long as at least one file lies beneath it.
	DirectoriesUnder(ctx context.Context, prefix string) ([]string, error)
	// FilesAt returns the records whose vfs path is exactly dirpath.
	FilesAt(ctx context.Context, dirpath string) ([]*data.FileRecord, error)
	// InsertFile adds rec, assigning a new ID when it has none. Inserting a
	// second file with the same path and name fails with data.ErrExist.
	InsertFile(ctx context.Context, rec *data.FileRecord) error
	// Close is part of the lifecycle behaviour and gets called when the owning
	// shrine shuts down.
	Close(ctx context.Context) error
}

// FileGetter is implemented by stores that can look up a record by its ID.
type FileGetter interface {
	GetFile(ctx context.Context, id string) (*data.FileRecord, error)
}

// SubtreeLister is implemented by stores that can return a whole subtree in one
// query, which lets a tree be built with a single round trip.
type SubtreeLister interface {
	FilesUnder(ctx context.Context, dirpath string) ([]*data.FileRecord, error)
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.Store)(nil)
	_ Store = (*consul.Store)(nil)
	_ Store = (*s3.Store)(nil)

	_ FileGetter    = (*memory.Store)(nil)
	_ FileGetter    = (*sqlite.Store)(nil)
	_ FileGetter    = (*postgres.Store)(nil)
	_ FileGetter    = (*consul.Store)(nil)
	_ FileGetter    = (*s3.Store)(nil)
	_ SubtreeLister = (*memory.Store)(nil)
	_ SubtreeLister = (*sqlite.Store)(nil)
	_ SubtreeLister = (*postgres.Store)(nil)
	_ SubtreeLister = (*consul.Store)(nil)
	_ SubtreeLister = (*s3.Store)(nil)
)
