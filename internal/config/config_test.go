package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigParsing(t *testing.T) {
	configContent := `# Global options
log.level debug
color   never

[planner]
# how often to look for a plan
assessment-period 250ms
trace on

[sim]
tick 20ms`

	config, err := LoadFromReader(strings.NewReader(configContent))
	require.NoError(t, err)
	assert.Empty(t, config.GetWarnings())
	assert.False(t, config.HasWarnings())

	v, ok := config.GetGlobalOption("log.level")
	assert.True(t, ok)
	assert.Equal(t, "debug", v)

	v, ok = config.GetGlobalOption("color")
	assert.True(t, ok)
	assert.Equal(t, "never", v, "value is trimmed")

	v, ok = config.GetSectionOption(SectionPlanner, "assessment-period")
	assert.True(t, ok)
	assert.Equal(t, "250ms", v)

	v, ok = config.GetSectionOption(SectionSim, "log.level")
	assert.True(t, ok, "sections fall back to global options")
	assert.Equal(t, "debug", v)

	_, ok = config.GetSectionOption("nonexistent", "option")
	assert.False(t, ok)
}

func TestEmptyConfig(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, config.Global)
	assert.Empty(t, config.Sections)
}

func TestConfigWarnings(t *testing.T) {
	configContent := `verbose true
log.format yaml

[planner]
trace maybe
speed 3

[session]
id x`

	config, err := LoadFromReader(strings.NewReader(configContent))
	require.NoError(t, err)
	assert.Equal(t, []string{
		`global option "log.format": expected one of text, json, got "yaml"`,
		`option "trace" in [planner]: expected bool, got "maybe"`,
		`unknown global option: "verbose" (value: "true")`,
		`unknown option in [planner]: "speed" (value: "3")`,
		`unknown section: [session]`,
	}, config.GetWarnings())
}

func TestOptionWithoutValue(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader("log.file\n"))
	require.NoError(t, err)
	v, ok := config.GetGlobalOption("log.file")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestSetOptions(t *testing.T) {
	config := NewConfig()
	config.SetSectionOption("", "color", "always")
	config.SetSectionOption(SectionSim, "tick", "1s")
	assert.Equal(t, map[string]string{"color": "always"}, config.Global)
	assert.Equal(t, map[string]string{"tick": "1s"}, config.Sections[SectionSim])
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadFromPath(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, config.Global)

	path := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(path, []byte("[sim]\nmax-ticks 10\n"), 0644))
	config, err = LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "10", config.Sections[SectionSim]["max-ticks"])

	link := filepath.Join(dir, "link")
	if err := os.Symlink(path, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	_, err = LoadFromPath(link)
	assert.ErrorContains(t, err, "symlink not allowed")
}

func TestSplitKey(t *testing.T) {
	s := DefaultSchema()
	for _, tc := range []struct {
		ref, section, key string
	}{
		{"planner.trace", SectionPlanner, "trace"},
		{"sim.max-ticks", SectionSim, "max-ticks"},
		{"log.level", "", "log.level"},
		{"color", "", "color"},
	} {
		t.Run(tc.ref, func(t *testing.T) {
			section, key := SplitKey(s, tc.ref)
			assert.Equal(t, tc.section, section)
			assert.Equal(t, tc.key, key)
		})
	}
}
