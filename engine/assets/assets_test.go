package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-instancing/engine/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangle = `
[[meshes]]
vertices = [0.0, 0.0, 0.0, 1.0, 0.0, 0.0, 0.0, 1.0, 0.0]
indices = [0, 1, 2]
  [[meshes.layout]]
  usage = "position"
  components = 3
`

func newWatchedDir(t *testing.T) (*AssetManager, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "geometry"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geometry", "tri.geom"), []byte(triangle), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0o644))

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	t.Cleanup(func() { _ = am.Shutdown() })
	return am, dir
}

func TestResourceTypeForPath(t *testing.T) {
	assert.Equal(t, metadata.ResourceTypeGeometry, ResourceTypeForPath("a/b.geom"))
	assert.Equal(t, metadata.ResourceTypeInstanceData, ResourceTypeForPath("field.inst"))
	assert.Equal(t, metadata.ResourceTypeNone, ResourceTypeForPath("notes.txt"))
}

func TestInitializeIndexesAssets(t *testing.T) {
	am, _ := newWatchedDir(t)

	info, ok := am.Asset(filepath.Join("geometry", "tri.geom"))
	require.True(t, ok)
	assert.Equal(t, metadata.ResourceTypeGeometry, info.Type)

	_, ok = am.Asset("readme.txt")
	assert.False(t, ok)
	assert.Empty(t, am.DrainChanged())
}

func TestLoadAsset(t *testing.T) {
	am, _ := newWatchedDir(t)

	res, err := am.LoadAsset("geometry/tri.geom", nil)
	require.NoError(t, err)
	data, ok := res.Data.(*resources.GeometryData)
	require.True(t, ok)
	assert.Len(t, data.Meshes, 1)

	info, ok := am.Asset("geometry/tri.geom")
	require.True(t, ok)
	assert.False(t, info.LastLoaded.IsZero())

	require.NoError(t, am.UnloadAsset(res))
	assert.Nil(t, res.Data)
}

func TestLoadAssetErrors(t *testing.T) {
	am, _ := newWatchedDir(t)

	_, err := am.LoadAsset("readme.txt", nil)
	assert.ErrorIs(t, err, core.ErrNoLoader)

	_, err = am.LoadAsset("geometry/missing.geom", nil)
	assert.ErrorIs(t, err, core.ErrResourceNotFound)
}

func TestDrainChangedReportsWrites(t *testing.T) {
	am, dir := newWatchedDir(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "geometry", "tri.geom"), []byte(triangle+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	var changed []string
	require.Eventually(t, func() bool {
		changed = append(changed, am.DrainChanged()...)
		return len(changed) > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{filepath.Join("geometry", "tri.geom")}, changed)
}

func TestShutdownIsIdempotent(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())
}
