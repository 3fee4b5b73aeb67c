package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Zaphodious/oosikle-app/cmd"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/spf13/pflag"
)

type StatCommand struct{}

func (s *StatCommand) Name() string {
	return "stat"
}

func (s *StatCommand) Description() string {
	return "Show the catalog record of a file, or a summary of a directory"
}

func (s *StatCommand) Usage() string {
	return "stat <path>"
}

func (s *StatCommand) DefineFlags(flags *pflag.FlagSet) {}

func (s *StatCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if len(args.Args) != 1 {
		return 2, fmt.Errorf("usage: %s", s.Usage())
	}

	item, err := api.Stat(ctx, args.Args[0])
	if err != nil {
		return 1, err
	}

	if item.IsDir() {
		fmt.Fprintf(writer, "directory %s (%d files, %d subdirectories)\n",
			data.NormalizeDir(args.Args[0]), item.Dir.Len(), item.Dir.Subdirs.Len())
		return 0, nil
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(item.File); err != nil {
		return 1, err
	}
	return 0, nil
}
