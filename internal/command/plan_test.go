package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/goap/internal/config"
)

const yard = "testdata/yard.yaml"

func TestPlanCommand(t *testing.T) {
	cmd := NewPlanCommand(config.NewConfig())
	out, _, err := execute(t, cmd, yard)
	require.NoError(t, err)

	assert.Contains(t, out, "builder (ConstructBuildings)\n")
	assert.Regexp(t, `1\.\s+PickUpResource\s+cost 1\s+@ depot`, out)
	assert.Regexp(t, `2\.\s+ProcessResource\s+cost 1\s+@ mill`, out)
	assert.Regexp(t, `3\.\s+Build\s+cost 1\s+@ hall`, out)
	assert.Contains(t, out, "  total cost 3\n")

	assert.Contains(t, out, "\nhauler (CollectResources)\n")
	assert.Regexp(t, `hauler \(CollectResources\)\n\s+1\.\s+PickUpResource\s+cost 1\s+@ depot\n\s+2\.\s+DeliverResource\s+cost 1`, out)
	assert.Contains(t, out, "  total cost 2\n")
}

func TestPlanCommand_Agent(t *testing.T) {
	cmd := NewPlanCommand(config.NewConfig())
	out, _, err := execute(t, cmd, "-agent", "hauler", yard)
	require.NoError(t, err)
	assert.NotContains(t, out, "builder")
	assert.Contains(t, out, "hauler (CollectResources)")

	cmd = NewPlanCommand(config.NewConfig())
	_, _, err = execute(t, cmd, "-agent", "nobody", yard)
	assert.EqualError(t, err, "agent not found: nobody")
}

func TestPlanCommand_NoPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stuck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: stuck
agents:
  - name: courier
    goal: CollectResources
    actions: [DeliverResource]
`), 0644))

	out, _, err := execute(t, NewPlanCommand(config.NewConfig()), path)
	require.NoError(t, err)
	assert.Equal(t, "courier (CollectResources)\n  no plan\n", out)
}

func TestPlanCommand_Errors(t *testing.T) {
	_, stderr, err := execute(t, NewPlanCommand(config.NewConfig()))
	assert.Error(t, err)
	assert.Contains(t, stderr, "Usage: goap plan")

	_, _, err = execute(t, NewPlanCommand(config.NewConfig()), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
