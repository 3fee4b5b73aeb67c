package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/Zaphodious/oosikle-app/cmd"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/spf13/pflag"
)

type LsCommand struct{}

// Name returns the command identifier
func (ls *LsCommand) Name() string {
	return "ls"
}

// Description returns human-readable help text
func (ls *LsCommand) Description() string {
	return "List subdirectories and files of a virtual directory"
}

// Usage returns a usage string for help
func (ls *LsCommand) Usage() string {
	return "ls [path]"
}

func (ls *LsCommand) DefineFlags(flags *pflag.FlagSet) {}

// Execute prints subdirectories (with a trailing slash) before files.
func (ls *LsCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	path := data.NormalizeDir(args.Arg(0, ""))

	dirs, err := api.GetDirectoriesAt(ctx, path)
	if err != nil {
		return 1, err
	}
	files, err := api.GetFilesAt(ctx, path)
	if err != nil {
		return 1, err
	}

	for _, dir := range dirs {
		fmt.Fprintf(writer, "%s/\n", data.Leaf(dir))
	}
	for _, file := range files {
		fmt.Fprintln(writer, file.Name)
	}
	return 0, nil
}
