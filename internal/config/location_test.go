package config

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigPathEnvOverride(t *testing.T) {
	t.Setenv("GOAP_CONFIG", "/tmp/custom-config")

	got, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-config", got)
}

func TestGetConfigPathDefault(t *testing.T) {
	dir := t.TempDir()

	homeVar := "HOME"
	if runtime.GOOS == "windows" {
		homeVar = "USERPROFILE"
	}
	t.Setenv(homeVar, dir)
	t.Setenv("GOAP_CONFIG", "")

	got, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".goap", "config"), got)
}

func TestLoadUsesConfigPath(t *testing.T) {
	t.Setenv("GOAP_CONFIG", filepath.Join(t.TempDir(), "config"))
	config, err := Load()
	require.NoError(t, err)
	assert.Empty(t, config.Global)
}
