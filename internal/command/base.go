// Package command implements the goap subcommands. Each command parses its
// own flags and writes to the given stdout and stderr.
package command

import (
	"flag"
	"io"
)

// Command represents a command that can be executed.
type Command interface {
	// Name returns the command name.
	Name() string

	// Description returns a short description of the command.
	Description() string

	// Usage returns the usage string for the command.
	Usage() string

	// SetupFlags configures the flag.FlagSet for this command.
	SetupFlags(fs *flag.FlagSet)

	// Execute runs the command with the arguments left after flag parsing.
	Execute(args []string, stdout, stderr io.Writer) error
}

// BaseCommand provides the naming half of Command for embedding.
type BaseCommand struct {
	name        string
	description string
	usage       string
}

func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{
		name:        name,
		description: description,
		usage:       usage,
	}
}

func (c *BaseCommand) Name() string { return c.name }

func (c *BaseCommand) Description() string { return c.description }

func (c *BaseCommand) Usage() string { return c.usage }

// SetupFlags registers no flags.
func (c *BaseCommand) SetupFlags(*flag.FlagSet) {}
