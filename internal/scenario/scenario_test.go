package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/goap/internal/library"
	"github.com/joeycumines/goap/internal/worldstate"
)

func TestLoad(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "quarry.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "quarry", sc.Name)
	require.Len(t, sc.Objects, 5)
	assert.Equal(t, worldstate.Vec3{X: 10, Z: 8}, sc.Objects[2].Position)
	assert.Equal(t, map[string]any{"count": 3}, sc.Objects[1].Props)
	assert.NotNil(t, sc.Objects[0].Props)

	require.Len(t, sc.Agents, 2)
	builder, hauler := sc.Agents[0], sc.Agents[1]
	assert.Equal(t, 4.0, builder.Speed)
	assert.Equal(t, DefaultSense, builder.Sense)
	assert.Equal(t, library.DefaultToolCharges, builder.ToolCharges)
	assert.NotNil(t, builder.State)
	assert.Equal(t, DefaultSpeed, hauler.Speed)
	assert.Equal(t, worldstate.New(worldstate.Bool("HasResource", false)), hauler.State)

	r, err := sc.Registry()
	require.NoError(t, err)
	actions, err := r.Actions(hauler.Actions, nil)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, "Rest", actions[2].Name())
}

func TestLoad_WithDefaults(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "quarry.yaml"), WithDefaults(Defaults{Speed: 2, Sense: -1}))
	require.NoError(t, err)
	assert.Equal(t, 4.0, sc.Agents[0].Speed, "explicit speed is kept")
	assert.Equal(t, 2.0, sc.Agents[1].Speed)
	assert.Equal(t, DefaultSense, sc.Agents[1].Sense)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Empty(t *testing.T) {
	sc, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, sc.Agents)
}

func TestParse_Invalid(t *testing.T) {
	doc := `
actions:
  - name: Broken
objects:
  - {id: a, kind: depot}
  - {id: a}
agents:
  - {name: w, goal: Dance}
  - {name: w, goal: CollectResources, actions: [Fly], speed: -1}
`
	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`objects[1]: duplicate id "a"`,
		"objects[1]: kind is required",
		"actions: action Broken: no effects",
		"agents[0]: unknown goal: Dance",
		`agents[1]: duplicate name "w"`,
		"agents[1]: speed and sense must not be negative",
	} {
		assert.Contains(t, msg, want)
	}

	_, err = Parse(strings.NewReader("agents: {"))
	assert.ErrorContains(t, err, "failed to decode scenario")
}

func TestWatcher_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: one\n"), 0o644))

	w, err := NewWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	// unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("name: two\n"), 0o644))

	select {
	case u := <-w.Updates:
		require.NoError(t, u.Err)
		assert.Equal(t, "two", u.Scenario.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}

	require.NoError(t, os.WriteFile(path, []byte("agents: [{name: x, goal: Nap}]\n"), 0o644))
	select {
	case u := <-w.Updates:
		assert.ErrorContains(t, u.Err, "unknown goal: Nap")
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, ok := <-w.Updates
	assert.False(t, ok)
}
