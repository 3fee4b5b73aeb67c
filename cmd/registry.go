package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

var ErrUnknownCommand = errors.New("unknown command")

// Registry dispatches a command line to the command named by its first word.
type Registry struct {
	commands map[string]Command
}

func NewRegistry(commands ...Command) *Registry {
	r := &Registry{commands: make(map[string]Command, len(commands))}
	for _, c := range commands {
		r.commands[c.Name()] = c
	}
	return r
}

// Run parses argv (command name first) and executes the command.
func (r *Registry) Run(ctx context.Context, api API, argv []string, writer io.Writer) (int, error) {
	if len(argv) == 0 {
		r.PrintUsage(writer)
		return 2, fmt.Errorf("no command given")
	}

	command, ok := r.commands[argv[0]]
	if !ok {
		return 2, fmt.Errorf("%w: %s", ErrUnknownCommand, argv[0])
	}

	flags := pflag.NewFlagSet(command.Name(), pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	command.DefineFlags(flags)
	if err := flags.Parse(argv[1:]); err != nil {
		return 2, fmt.Errorf("%s: %w (usage: %s)", command.Name(), err, command.Usage())
	}

	return command.Execute(ctx, api, &CommandArgs{Args: flags.Args(), Flags: flags}, writer)
}

func (r *Registry) PrintUsage(writer io.Writer) {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range names {
		c := r.commands[name]
		fmt.Fprintf(&b, "  %-32s %s\n", c.Usage(), c.Description())
	}
	io.WriteString(writer, b.String())
}
