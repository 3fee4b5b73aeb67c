package cmd

import (
	"context"
	"io"

	"github.com/Zaphodious/oosikle-app/data"
	"github.com/Zaphodious/oosikle-app/facadefs"
	"github.com/spf13/pflag"
)

// API is the part of a library the commands operate on.
type API interface {
	// GetDirectoriesAt returns the immediate child directories of path.
	GetDirectoriesAt(ctx context.Context, path string) ([]string, error)

	// GetFilesAt returns the files placed directly in path.
	GetFilesAt(ctx context.Context, path string) ([]*data.FileRecord, error)

	// GetDirTreeAt builds the full subtree rooted at path.
	GetDirTreeAt(ctx context.Context, path string) (*facadefs.DirTreeNode, error)

	// Stat resolves a single file or directory.
	Stat(ctx context.Context, path string) (facadefs.DirItem, error)

	// Glob matches pattern against file paths relative to dir.
	Glob(ctx context.Context, dir, pattern string) ([]facadefs.FlatEntry, error)

	// Import scans a directory on disk into a new import session.
	Import(ctx context.Context, dir string) (string, int, error)
}

// Command represents an executable command operating on a library.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Description returns human-readable help text
	Description() string

	// Usage returns a usage string for help (e.g. "find [-r] <pattern> [dir]")
	Usage() string

	// DefineFlags registers the command's flags, if it has any
	DefineFlags(flags *pflag.FlagSet)

	// Execute runs the command with parsed arguments
	// The writer parameter is where command output should be written
	// Returns exit code (0 = success) and error message
	Execute(ctx context.Context, api API, args *CommandArgs, writer io.Writer) (int, error)
}
