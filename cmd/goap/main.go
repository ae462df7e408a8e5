package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/goap/internal/command"
	"github.com/joeycumines/goap/internal/config"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: %v\n", err)
		cfg = config.NewConfig()
	}

	registry := command.NewRegistry()
	helpCmd := command.NewHelpCommand(registry)
	registry.Register(helpCmd)
	registry.Register(command.NewVersionCommand(version))
	registry.Register(command.NewConfigCommand(cfg, configPath))
	registry.Register(command.NewPlanCommand(cfg))
	registry.Register(command.NewRunCommand(cfg))

	if len(args) == 0 {
		return helpCmd.Execute(nil, stdout, stderr)
	}

	cmdName := args[0]
	if cmdName == "-h" || cmdName == "--help" {
		return helpCmd.Execute(nil, stdout, stderr)
	}

	cmd, err := registry.Get(cmdName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", cmdName)
		_, _ = fmt.Fprintln(stderr, "Use 'goap help' to see available commands.")
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: goap %s\n", cmd.Usage())
		_, _ = fmt.Fprintf(stderr, "\n%s\n\n", cmd.Description())
		_, _ = fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)

	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	return cmd.Execute(fs.Args(), stdout, stderr)
}
