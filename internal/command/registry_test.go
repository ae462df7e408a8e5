package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&testCommand{BaseCommand: NewBaseCommand("b", "B", "b")})
	r.Register(NewVersionCommand("1.0.0"))
	r.Register(&testCommand{BaseCommand: NewBaseCommand("a", "A", "a")})

	assert.Equal(t, []string{"a", "b", "version"}, r.List())
	cmd, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "A", cmd.Description())
	_, err = r.Get("c")
	assert.EqualError(t, err, "command not found: c")
}
