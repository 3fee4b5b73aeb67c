package builtin

import (
	"context"
	"io"

	"github.com/Zaphodious/oosikle-app/cmd"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/spf13/pflag"
)

type FilesCommand struct{}

func (f *FilesCommand) Name() string {
	return "files"
}

func (f *FilesCommand) Description() string {
	return "Show size and hash of the files in a virtual directory"
}

func (f *FilesCommand) Usage() string {
	return "files [path]"
}

func (f *FilesCommand) DefineFlags(flags *pflag.FlagSet) {}

func (f *FilesCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	files, err := api.GetFilesAt(ctx, data.NormalizeDir(args.Arg(0, "")))
	if err != nil {
		return 1, err
	}

	for _, file := range files {
		writeRecord(writer, file.Key(), file)
	}
	return 0, nil
}
