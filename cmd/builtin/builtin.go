// Package builtin holds the commands of the oosikle command line.
package builtin

import (
	"fmt"
	"io"

	"github.com/Zaphodious/oosikle-app/cmd"
	"github.com/Zaphodious/oosikle-app/data"
)

// Commands returns every builtin command.
func Commands() []cmd.Command {
	return []cmd.Command{
		&LsCommand{},
		&FilesCommand{},
		&TreeCommand{},
		&StatCommand{},
		&FindCommand{},
		&GlobCommand{},
		&ImportCommand{},
	}
}

// NewRegistry returns a registry with every builtin command.
func NewRegistry() *cmd.Registry {
	return cmd.NewRegistry(Commands()...)
}

func writeRecord(w io.Writer, path string, rec *data.FileRecord) {
	fmt.Fprintf(w, "%-12d %s  %s\n", rec.SizeBytes, shortHash(rec.Hash), path)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return fmt.Sprintf("%-12s", hash)
}
