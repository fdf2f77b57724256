package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Debug("hidden")
	l.Info("hidden too")
	l.WithField("op", "add_task").Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "op=add_task")

	buf.Reset()
	l = New(&buf, true)
	l.Debug("verbose")
	assert.Contains(t, buf.String(), "verbose")
}

func TestNewFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	l, closer, err := NewFile(dir, false)
	require.NoError(t, err)
	l.Error("boom")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "boom")
}
