package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/Zaphodious/oosikle-app/cmd"
	"github.com/spf13/pflag"
)

type ImportCommand struct{}

func (i *ImportCommand) Name() string {
	return "import"
}

func (i *ImportCommand) Description() string {
	return "Import a directory from disk as a new session"
}

func (i *ImportCommand) Usage() string {
	return "import <dir>"
}

func (i *ImportCommand) DefineFlags(flags *pflag.FlagSet) {}

func (i *ImportCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if len(args.Args) != 1 {
		return 2, fmt.Errorf("usage: %s", i.Usage())
	}

	session, count, err := api.Import(ctx, args.Args[0])
	if err != nil {
		if count > 0 {
			fmt.Fprintf(writer, "imported %d files into %s/ with errors\n", count, session)
		}
		return 1, err
	}

	fmt.Fprintf(writer, "imported %d files into %s/\n", count, session)
	return 0, nil
}
