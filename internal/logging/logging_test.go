package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.EqualError(t, err, "invalid log level: verbose")
}

func TestNew_TextToFallback(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "debug"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("plan formulated", KeyAgent, "a1", KeyCost, 2.0)
	assert.Contains(t, buf.String(), "plan formulated")
	assert.Contains(t, buf.String(), "agent=a1")
	assert.Contains(t, buf.String(), "cost=2")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "warn"}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "goap.log")
	logger, closer, err := New(Options{File: path, Format: "json"}, nil)
	require.NoError(t, err)
	logger.Info("hello", KeyGoal, "CollectResources")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "CollectResources", rec[KeyGoal])
}

func TestNew_Errors(t *testing.T) {
	_, _, err := New(Options{Level: "loud"}, nil)
	assert.Error(t, err)
	_, _, err = New(Options{Format: "xml"}, nil)
	assert.EqualError(t, err, "invalid log format: xml")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := slog.Default()
	assert.Same(t, l, OrDiscard(l))
	assert.NotPanics(t, func() { Discard().Error("dropped") })
}

// newTinyWriter bypasses the 1 MB minimum of the public constructor.
func newTinyWriter(t *testing.T, limit int64, maxFiles int) (*RotatingFileWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	f, err := openAppend(path)
	require.NoError(t, err)
	w := &RotatingFileWriter{path: path, limit: limit, maxFiles: maxFiles, file: f}
	t.Cleanup(func() { _ = w.Close() })
	return w, path
}

func TestRotatingFileWriter_Rotates(t *testing.T) {
	w, path := newTinyWriter(t, 50, 2)
	line := strings.Repeat("A", 39) + "\n"

	for i := 0; i < 4; i++ {
		_, err := w.Write([]byte(line))
		require.NoError(t, err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		data, err := os.ReadFile(p)
		require.NoError(t, err, p)
		assert.Equal(t, line, string(data), p)
	}
	_, err := os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "backups beyond maxFiles are removed")
}

func TestRotatingFileWriter_NoBackups(t *testing.T) {
	w, path := newTinyWriter(t, 10, 0)
	_, err := w.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	_, err = os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingFileWriter_AppendsAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	w, err := NewRotatingFileWriter(path, 0, -1)
	require.NoError(t, err)
	_, err = w.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestRotatingFileWriter_Concurrent(t *testing.T) {
	w, path := newTinyWriter(t, 1<<20, 1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = w.Write([]byte("line\n"))
			}
		}()
	}
	wg.Wait()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 400, strings.Count(string(data), "line\n"))
}
