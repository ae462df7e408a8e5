package command

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/goap/internal/config"
)

type testCommand struct {
	*BaseCommand
	verbose bool
}

func (c *testCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "verbose", false, "Say more")
}

func (c *testCommand) Execute([]string, io.Writer, io.Writer) error { return nil }

func TestHelpCommand(t *testing.T) {
	r := NewRegistry()
	help := NewHelpCommand(r)
	r.Register(help)
	r.Register(NewVersionCommand("1.0.0"))
	r.Register(&testCommand{BaseCommand: NewBaseCommand("test", "Test command", "test [options]")})

	t.Run("general", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, help.Execute(nil, &stdout, &stderr))
		out := stdout.String()
		assert.Contains(t, out, "Usage: goap <command>")
		assert.Contains(t, out, "Display version information")
		assert.Contains(t, out, "Test command")
	})

	t.Run("command", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, help.Execute([]string{"test"}, &stdout, &stderr))
		out := stdout.String()
		assert.Contains(t, out, "Usage: goap test [options]")
		assert.Contains(t, out, "Flags:")
		assert.Contains(t, out, "-verbose")
	})

	t.Run("no flags", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, help.Execute([]string{"version"}, &stdout, &stderr))
		assert.NotContains(t, stdout.String(), "Flags:")
	})

	t.Run("unknown", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		assert.Error(t, help.Execute([]string{"nope"}, &stdout, &stderr))
		assert.Contains(t, stderr.String(), "Unknown command: nope")
	})
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")
	var stdout, stderr bytes.Buffer
	require.NoError(t, cmd.Execute(nil, &stdout, &stderr))
	assert.Equal(t, "goap version 1.2.3\n", stdout.String())

	assert.Error(t, cmd.Execute([]string{"extra"}, &stdout, &stderr))
}

func newConfigCommand(t *testing.T, content string) (*ConfigCommand, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	cfg := config.NewConfig()
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		var err error
		cfg, err = config.LoadFromPath(path)
		require.NoError(t, err)
	}
	return NewConfigCommand(cfg, path), path
}

func execute(t *testing.T, cmd Command, args ...string) (string, string, error) {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.SetupFlags(fs)
	require.NoError(t, fs.Parse(args))
	var stdout, stderr bytes.Buffer
	err := cmd.Execute(fs.Args(), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestConfigCommand_Get(t *testing.T) {
	cmd, _ := newConfigCommand(t, "log.level warn\n[sim]\ntick 20ms\n")

	for _, tc := range []struct {
		key, want string
	}{
		{"log.level", "log.level: warn\n"},
		{"sim.tick", "sim.tick: 20ms\n"},
		{"sim.max-ticks", "sim.max-ticks: 2000\n"},
		{"planner.assessment-period", "planner.assessment-period: 400ms\n"},
		{"nope", "Configuration key 'nope' not found\n"},
	} {
		t.Run(tc.key, func(t *testing.T) {
			out, _, err := execute(t, cmd, tc.key)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}

	t.Setenv("GOAP_LOG_LEVEL", "error")
	out, _, err := execute(t, cmd, "log.level")
	require.NoError(t, err)
	assert.Equal(t, "log.level: error\n", out)
}

func TestConfigCommand_Set(t *testing.T) {
	cmd, path := newConfigCommand(t, "")

	out, _, err := execute(t, cmd, "planner.trace", "true")
	require.NoError(t, err)
	assert.Equal(t, "Set configuration: planner.trace = true\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[planner]\ntrace true\n", string(data))

	out, _, err = execute(t, cmd, "planner.trace")
	require.NoError(t, err)
	assert.Equal(t, "planner.trace: true\n", out)

	_, stderr, err := execute(t, cmd, "sim.tick", "soon")
	assert.Error(t, err)
	assert.Contains(t, stderr, `expected duration, got "soon"`)

	_, stderr, err = execute(t, cmd, "colour", "red")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning: unknown option colour")

	_, _, err = execute(t, cmd, "a", "b", "c")
	assert.EqualError(t, err, "invalid arguments")
}

func TestConfigCommand_Show(t *testing.T) {
	cmd, _ := newConfigCommand(t, "color never\n")

	out, _, err := execute(t, cmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration management:")

	out, _, err = execute(t, cmd, "-global")
	require.NoError(t, err)
	assert.Contains(t, out, "Global options:")
	assert.Regexp(t, `color\s+never`, out)
	assert.NotContains(t, out, "[sim]")

	cmd, _ = newConfigCommand(t, "")
	out, _, err = execute(t, cmd, "-all")
	require.NoError(t, err)
	assert.Contains(t, out, "[planner] options:")
	assert.Regexp(t, `sim\.interaction-range\s+1\.5`, out)
}

func TestConfigCommand_ValidateAndSchema(t *testing.T) {
	cmd, _ := newConfigCommand(t, "bogus 1\n")
	out, _, err := execute(t, cmd, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration has 1 issue(s):")
	assert.Contains(t, out, `unknown global option: "bogus"`)

	cmd, _ = newConfigCommand(t, "")
	out, _, err = execute(t, cmd, "validate")
	require.NoError(t, err)
	assert.Equal(t, "Configuration is valid.\n", out)

	out, _, err = execute(t, cmd, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "[sim] Options:")
}

type fdWriter struct{ bytes.Buffer }

func (*fdWriter) Fd() uintptr { return ^uintptr(0) }

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, colorEnabled("always", &buf))
	assert.False(t, colorEnabled("never", &buf))
	assert.False(t, colorEnabled("auto", &buf))
	assert.False(t, colorEnabled("auto", &fdWriter{}), "not a terminal")
}

func TestConfigCommand_PersistFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cmd := NewConfigCommand(config.NewConfig(), filepath.Join(blocker, "config"))

	_, stderr, err := execute(t, cmd, "color", "always")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning: failed to persist config to disk")
}
