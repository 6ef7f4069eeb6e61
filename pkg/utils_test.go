package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "cmd", "internal")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tasks.star"), []byte("def configure():\n    pass\n"), 0o644))

	// no .git anywhere, e.g. an unpacked source archive
	found, err := GetProjectRoot(nested, "tasks.star")
	require.NoError(t, err)
	assert.Equal(t, root, found)

	found, err = GetProjectRoot(root, "tasks.star")
	require.NoError(t, err)
	assert.Equal(t, root, found)

	_, err = GetProjectRoot(nested, "missing.star")
	assert.True(t, eris.Is(err, ErrNotFound))
}
