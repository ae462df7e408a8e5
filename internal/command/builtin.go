package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/joeycumines/goap/internal/config"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "goap - goal-oriented action planning for simulated agents")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: goap <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Available commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'goap help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmdName := args[0]
	cmd, err := c.registry.Get(cmdName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", cmdName)
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: goap %s\n", cmd.Usage())

	// Show command-specific flags by invoking SetupFlags on a temporary FlagSet
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	buf := &bytes.Buffer{}
	fs.SetOutput(buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}

	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

// Execute displays version information.
func (c *VersionCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	_, _ = fmt.Fprintf(stdout, "goap version %s\n", c.version)
	return nil
}

// ConfigCommand shows and edits configuration. Section options are named
// with a dotted prefix, e.g. planner.trace or sim.tick.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	schema     *config.ConfigSchema
	configPath string
	showGlobal bool
	showAll    bool
}

// NewConfigCommand creates a new config command. If configPath is empty the
// resolved default path is used when persisting.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Show or change configuration settings",
			"config [options] [key] [value]",
		),
		config:     cfg,
		schema:     config.DefaultSchema(),
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the config command.
func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.showGlobal, "global", false, "Show the effective global options")
	fs.BoolVar(&c.showAll, "all", false, "Show the effective value of every option")
}

// Execute manages configuration.
func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		switch {
		case c.showAll:
			c.printOptions(stdout, "")
			for _, section := range c.schema.Sections() {
				_, _ = fmt.Fprintln(stdout, "")
				c.printOptions(stdout, section)
			}
		case c.showGlobal:
			c.printOptions(stdout, "")
		default:
			_, _ = fmt.Fprintln(stdout, "Configuration management:")
			_, _ = fmt.Fprintln(stdout, "  config <key>          - Get the effective value")
			_, _ = fmt.Fprintln(stdout, "  config <key> <value>  - Set a value in the config file")
			_, _ = fmt.Fprintln(stdout, "  config --global       - Show global options")
			_, _ = fmt.Fprintln(stdout, "  config --all          - Show all options")
			_, _ = fmt.Fprintln(stdout, "  config validate       - Validate configuration")
			_, _ = fmt.Fprintln(stdout, "  config schema         - Show configuration schema")
			_, _ = fmt.Fprintln(stdout, "Section options are named section.key, e.g. sim.tick.")
		}
		return nil
	}

	switch args[0] {
	case "validate":
		return c.executeValidate(stdout)
	case "schema":
		_, _ = fmt.Fprint(stdout, c.schema.FormatHelp())
		return nil
	}

	section, key := config.SplitKey(c.schema, args[0])

	switch len(args) {
	case 1:
		// Schema-aware: env, then config, then default.
		if c.schema.Lookup(section, key) == nil {
			if v, ok := c.config.GetSectionOption(section, key); ok {
				_, _ = fmt.Fprintf(stdout, "%s: %s\n", args[0], v)
				return nil
			}
			_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", args[0])
			return nil
		}
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", args[0], c.schema.Resolve(c.config, section, key))
		return nil

	case 2:
		value := args[1]
		if opt := c.schema.Lookup(section, key); opt == nil {
			_, _ = fmt.Fprintf(stderr, "Warning: unknown option %s\n", args[0])
		} else if issues := config.ValidateConfig(singleOption(section, key, value), c.schema); len(issues) > 0 {
			_, _ = fmt.Fprintf(stderr, "Invalid value: %s\n", issues[0])
			return fmt.Errorf("invalid value for %s", args[0])
		}
		c.config.SetSectionOption(section, key, value)

		configPath := c.configPath
		if configPath == "" {
			configPath, _ = config.GetConfigPath()
		}
		if configPath != "" {
			if err := config.SetKeyInFile(configPath, section, key, value); err != nil {
				_, _ = fmt.Fprintf(stderr, "Warning: failed to persist config to disk: %v\n", err)
			}
		}

		_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", args[0], value)
		return nil
	}

	_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
	return fmt.Errorf("invalid arguments")
}

func (c *ConfigCommand) printOptions(stdout io.Writer, section string) {
	title := "Global options:"
	prefix := ""
	if section != "" {
		title = fmt.Sprintf("[%s] options:", section)
		prefix = section + "."
	}
	_, _ = fmt.Fprintln(stdout, title)
	w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	for _, opt := range c.schema.SectionOptions(section) {
		_, _ = fmt.Fprintf(w, "  %s%s\t%s\n", prefix, opt.Key, c.schema.Resolve(c.config, section, opt.Key))
	}
	_ = w.Flush()
}

// executeValidate validates the current config against the schema.
func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, c.schema)
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}

func singleOption(section, key, value string) *config.Config {
	c := config.NewConfig()
	c.SetSectionOption(section, key, value)
	return c
}
