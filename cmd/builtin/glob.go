package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/Zaphodious/oosikle-app/cmd"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/spf13/pflag"
)

type GlobCommand struct{}

func (g *GlobCommand) Name() string {
	return "glob"
}

func (g *GlobCommand) Description() string {
	return "Match a doublestar pattern against file paths below a directory"
}

func (g *GlobCommand) Usage() string {
	return "glob [--long] <pattern> [path]"
}

func (g *GlobCommand) DefineFlags(flags *pflag.FlagSet) {
	flags.BoolP("long", "l", false, "include size and hash")
}

func (g *GlobCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if len(args.Args) < 1 || len(args.Args) > 2 {
		return 2, fmt.Errorf("usage: %s", g.Usage())
	}
	long, err := args.Flags.GetBool("long")
	if err != nil {
		return 2, err
	}

	entries, err := api.Glob(ctx, data.NormalizeDir(args.Arg(1, "")), args.Args[0])
	if err != nil {
		return 1, err
	}

	for _, entry := range entries {
		if long {
			writeRecord(writer, entry.Path, entry.File)
			continue
		}
		fmt.Fprintln(writer, entry.Path)
	}
	return 0, nil
}
