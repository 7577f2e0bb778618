package provenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_FindsNearestGoMod(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/wasmthing\n\ngo 1.23\n"), 0o644))

	nested := filepath.Join(root, "cmd", "app")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	binPath := filepath.Join(nested, "app.wasm")
	require.NoError(t, os.WriteFile(binPath, []byte("\x00asm"), 0o644))

	info, ok, err := New().Detect(context.Background(), binPath)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "example.com/wasmthing", info.ModulePath)
	assert.Equal(t, root, info.RootDir)
}

func TestDetect_NoGoModReturnsNotOK(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "app.wasm")
	require.NoError(t, os.WriteFile(binPath, []byte("\x00asm"), 0o644))

	_, ok, err := New().Detect(context.Background(), binPath)
	require.NoError(t, err)
	assert.False(t, ok)
}
