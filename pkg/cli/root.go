package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(ctx context.Context, args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet

	out io.Writer
}

// NewRootCommand creates the orgadmin root command
func NewRootCommand(env *Env) *Command {
	root := &Command{
		Name:        "orgadmin",
		Description: "orgadmin - organization provisioning",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("orgadmin", flag.ContinueOnError),
		out:         env.Out,
	}

	root.Subcommands["migrate"] = newMigrateCommand(env)
	root.Subcommands["seed"] = newSeedCommand(env)
	root.Subcommands["create"] = newCreateCommand(env)
	root.Subcommands["rename"] = newRenameCommand(env)
	root.Subcommands["members"] = newMembersCommand(env)
	root.Subcommands["check"] = newCheckCommand(env)

	return root
}

// Execute runs the subcommand named by the first argument
func (c *Command) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(ctx, args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

func (c *Command) usage() error {
	fmt.Fprintf(c.out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(c.out, "Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

// parse parses the flags of a subcommand, reporting errors on the env output
func (c *Command) parse(env *Env, args []string) error {
	c.Flags.SetOutput(env.Out)
	return c.Flags.Parse(args)
}
