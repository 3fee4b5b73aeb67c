package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/Zaphodious/oosikle-app/cmd"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/spf13/pflag"
)

type FindCommand struct{}

func (f *FindCommand) Name() string {
	return "find"
}

func (f *FindCommand) Description() string {
	return "Find files whose name matches a pattern"
}

func (f *FindCommand) Usage() string {
	return "find [--shallow] <pattern> [path]"
}

func (f *FindCommand) DefineFlags(flags *pflag.FlagSet) {
	flags.BoolP("shallow", "s", false, "only search the directory itself")
}

func (f *FindCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if len(args.Args) < 1 || len(args.Args) > 2 {
		return 2, fmt.Errorf("usage: %s", f.Usage())
	}
	shallow, err := args.Flags.GetBool("shallow")
	if err != nil {
		return 2, err
	}

	node, err := api.GetDirTreeAt(ctx, data.NormalizeDir(args.Arg(1, "")))
	if err != nil {
		return 1, err
	}

	pattern := args.Args[0]
	var files []*data.FileRecord
	if shallow {
		files, err = node.SearchFilesWithNamesMatchingPattern(pattern)
	} else {
		files, err = node.SearchFilesWithNamesMatchingPatternRecursive(pattern)
	}
	if err != nil {
		return 2, err
	}

	for _, file := range files {
		fmt.Fprintln(writer, file.Key())
	}
	return 0, nil
}
