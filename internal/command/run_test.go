package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/goap/internal/config"
)

const haulerScenario = `name: haul
objects:
  - {id: depot, kind: depot, position: [3, 0, 0], props: {resources: 2}}
agents:
  - name: hauler
    goal: CollectResources
    actions: [PickUpResource, DeliverResource]
`

func writeScenario(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestRunCommand(t *testing.T) {
	path := writeScenario(t, haulerScenario)

	for _, engine := range []string{EngineRegression, EngineReactive} {
		t.Run(engine, func(t *testing.T) {
			out, _, err := execute(t, NewRunCommand(config.NewConfig()), "-engine", engine, "-fast", "-ticks", "150", path)
			require.NoError(t, err)
			assert.Contains(t, out, "hauler reached CollectResources")
			assert.Contains(t, out, "stopped after 150 ticks (7.50s)")
			assert.Regexp(t, `hauler\s+at `, out)
			assert.Regexp(t, `depot\s+depot\s+resources=\d`, out)
			assert.NotContains(t, out, "plans:")
		})
	}
}

func TestRunCommand_Regression(t *testing.T) {
	path := writeScenario(t, haulerScenario)
	out, _, err := execute(t, NewRunCommand(config.NewConfig()), "-fast", "-ticks", "150", path)
	require.NoError(t, err)
	assert.Contains(t, out, "hauler plan for CollectResources: PickUpResource > DeliverResource (cost 2)")
	assert.Contains(t, out, "hauler start PickUpResource @ depot")
	assert.Contains(t, out, "hauler done DeliverResource")
}

func TestRunCommand_Trace(t *testing.T) {
	path := writeScenario(t, haulerScenario)
	out, stderr, err := execute(t, NewRunCommand(config.NewConfig()), "-fast", "-ticks", "150", "-trace", path)
	require.NoError(t, err)
	assert.Regexp(t, `plans: [1-9]\d* formulated, [1-9]\d* executed, \d+ abandoned; actions: [1-9]\d* ended, \d+ canceled`, out)
	assert.Contains(t, stderr, "span")
}

func TestRunCommand_Quiet(t *testing.T) {
	path := writeScenario(t, haulerScenario)
	out, _, err := execute(t, NewRunCommand(config.NewConfig()), "-fast", "-quiet", "-ticks", "20", "-tick", "100ms", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "plan for")
	assert.Contains(t, out, "stopped after 20 ticks (2.00s)")
}

func TestRunCommand_ConfigTicks(t *testing.T) {
	path := writeScenario(t, haulerScenario)
	cfg := config.NewConfig()
	cfg.SetSectionOption(config.SectionSim, "max-ticks", "3")
	out, _, err := execute(t, NewRunCommand(cfg), "-fast", path)
	require.NoError(t, err)
	assert.Contains(t, out, "stopped after 3 ticks")
}

func TestRunCommand_Errors(t *testing.T) {
	_, stderr, err := execute(t, NewRunCommand(config.NewConfig()))
	assert.Error(t, err)
	assert.Contains(t, stderr, "Usage: goap run")

	path := writeScenario(t, haulerScenario)
	_, _, err = execute(t, NewRunCommand(config.NewConfig()), "-engine", "quantum", path)
	assert.EqualError(t, err, "unknown engine: quantum")

	_, _, err = execute(t, NewRunCommand(config.NewConfig()), writeScenario(t, "agents: [{goal: CollectResources}]\n"))
	assert.ErrorContains(t, err, "name is required")
}

func TestRunCommand_Canceled(t *testing.T) {
	path := writeScenario(t, haulerScenario)
	cmd := NewRunCommand(config.NewConfig())
	cmd.context = func() (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, cancel
	}
	out, _, err := execute(t, cmd, "-ticks", "0", path)
	require.NoError(t, err)
	assert.Contains(t, out, "stopped after 0 ticks")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunCommand_Watch(t *testing.T) {
	path := writeScenario(t, haulerScenario)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd := NewRunCommand(config.NewConfig())
	cmd.context = func() (context.Context, context.CancelFunc) { return ctx, cancel }
	cmd.watch = true
	cmd.fast = true
	cmd.ticks = 10

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() { done <- cmd.Execute([]string{path}, &stdout, &stderr) }()

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("waiting for changes..."))
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("agents: [{goal: CollectResources}]\n"), 0644))
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("reload failed:"))
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(haulerScenario), 0644))
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("reloaded "+path))
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
