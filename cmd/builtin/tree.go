package builtin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Zaphodious/oosikle-app/cmd"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/Zaphodious/oosikle-app/facadefs"
	"github.com/spf13/pflag"
)

type TreeCommand struct{}

func (t *TreeCommand) Name() string {
	return "tree"
}

func (t *TreeCommand) Description() string {
	return "Print the virtual directory tree below a path"
}

func (t *TreeCommand) Usage() string {
	return "tree [--flat] [path]"
}

func (t *TreeCommand) DefineFlags(flags *pflag.FlagSet) {
	flags.BoolP("flat", "f", false, "print one relative file path per line")
}

func (t *TreeCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	flat, err := args.Flags.GetBool("flat")
	if err != nil {
		return 2, err
	}

	node, err := api.GetDirTreeAt(ctx, data.NormalizeDir(args.Arg(0, "")))
	if err != nil {
		return 1, err
	}

	if flat {
		for _, entry := range node.Flatten() {
			fmt.Fprintln(writer, entry.Path)
		}
		return 0, nil
	}

	printNode(writer, node, 0)
	return 0, nil
}

func printNode(w io.Writer, node *facadefs.DirTreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	node.Files.Scan(func(name string, _ *data.FileRecord) bool {
		fmt.Fprintf(w, "%s%s\n", indent, name)
		return true
	})
	node.Subdirs.Scan(func(name string, sub *facadefs.DirTreeNode) bool {
		fmt.Fprintf(w, "%s%s/\n", indent, name)
		printNode(w, sub, depth+1)
		return true
	})
}
