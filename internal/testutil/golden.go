package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var updateGolden = flag.Bool("update", os.Getenv("GOLDEN_UPDATE") != "", "rewrite testdata/*.golden with current output")

// Golden compares got with testdata/<name>.golden in the calling package.
// Run the tests with -update (or GOLDEN_UPDATE set) to rewrite the file.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()
	path := filepath.Join("testdata", name+".golden")

	if *updateGolden {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, got, 0o644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "missing golden file; got:\n%s", got)
	assert.Equal(t, string(want), string(got), "output differs from %s", path)
}
