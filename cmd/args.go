package cmd

import "github.com/spf13/pflag"

// CommandArgs contains parsed command arguments
type CommandArgs struct {
	// Positional arguments (command-specific)
	Args []string

	// Parsed flags
	Flags *pflag.FlagSet
}

// Arg returns the positional argument at i, or def when there are fewer.
func (a *CommandArgs) Arg(i int, def string) string {
	if i < len(a.Args) {
		return a.Args[i]
	}
	return def
}
