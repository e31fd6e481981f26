package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	l, err := New(InfoLevel, "")
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	l.SetOutput(&out, &errOut)

	l.Info("rendered %d files", 3)
	l.Debug("hidden")
	l.Error("write failed")

	assert.Equal(t, "rendered 3 files\n", out.String())
	assert.Contains(t, errOut.String(), "write failed")
}

func TestLoggerWritesRunLog(t *testing.T) {
	dir := t.TempDir()
	l, err := New(DebugLevel, dir)
	require.NoError(t, err)
	l.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})

	l.Debug("index written")
	l.Success("done")
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG: index written")
	assert.Contains(t, string(data), "[SUCCESS] done")
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Info("ignored")
	l.Progress("ignored")
	assert.NoError(t, l.Close())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("trace")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
