package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

type echoCommand struct{}

func (e *echoCommand) Name() string        { return "echo" }
func (e *echoCommand) Description() string { return "Print the arguments" }
func (e *echoCommand) Usage() string       { return "echo [-n] [args...]" }

func (e *echoCommand) DefineFlags(flags *pflag.FlagSet) {
	flags.BoolP("no-newline", "n", false, "omit the trailing newline")
}

func (e *echoCommand) Execute(ctx context.Context, api API, args *CommandArgs, writer io.Writer) (int, error) {
	noNewline, err := args.Flags.GetBool("no-newline")
	if err != nil {
		return 2, err
	}
	fmt.Fprint(writer, strings.Join(args.Args, " "))
	if !noNewline {
		fmt.Fprintln(writer)
	}
	return 0, nil
}

func TestRegistry_Run(t *testing.T) {
	registry := NewRegistry(&echoCommand{})

	tests := []struct {
		name     string
		argv     []string
		expected string
		code     int
		wantErr  error
	}{
		{name: "arguments", argv: []string{"echo", "a", "b"}, expected: "a b\n"},
		{name: "flag", argv: []string{"echo", "-n", "a"}, expected: "a"},
		{name: "flag after argument", argv: []string{"echo", "a", "--no-newline"}, expected: "a"},
		{name: "unknown command", argv: []string{"cat"}, code: 2, wantErr: ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code, err := registry.Run(t.Context(), nil, tt.argv, &out)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if code != tt.code {
				t.Errorf("Expected exit code %d, got %d", tt.code, code)
			}
			if out.String() != tt.expected {
				t.Errorf("Expected output %q, got %q", tt.expected, out.String())
			}
		})
	}
}

func TestRegistry_RunWithoutCommand(t *testing.T) {
	var out bytes.Buffer
	code, err := NewRegistry(&echoCommand{}).Run(t.Context(), nil, nil, &out)
	if err == nil || code != 2 {
		t.Fatalf("Expected usage error with code 2, got %d %v", code, err)
	}
	if !strings.Contains(out.String(), "echo [-n] [args...]") {
		t.Errorf("Expected usage to be printed, got %q", out.String())
	}
}

func TestCommandArgs_Arg(t *testing.T) {
	args := &CommandArgs{Args: []string{"first"}}
	if got := args.Arg(0, "x"); got != "first" {
		t.Errorf("Arg(0) = %q, want first", got)
	}
	if got := args.Arg(1, "x"); got != "x" {
		t.Errorf("Arg(1) = %q, want default", got)
	}
}
