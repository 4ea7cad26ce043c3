package volume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/vordr/pkg/validation"
)

func TestNewLocalDriver(t *testing.T) {
	tmpDir := t.TempDir()

	driver := NewLocalDriver(tmpDir)
	require.NotNil(t, driver)
	assert.Equal(t, filepath.Join(tmpDir, VolumesDir), driver.BasePath())

	// Nothing is created until the first volume
	_, err := os.Stat(driver.BasePath())
	assert.True(t, os.IsNotExist(err))
}

func TestLocalDriver_Create(t *testing.T) {
	driver := NewLocalDriver(t.TempDir())

	mountpoint, err := driver.Create("test")
	require.NoError(t, err)

	root, err := filepath.EvalSymlinks(driver.BasePath())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "test"), mountpoint)
	assert.DirExists(t, mountpoint)
}

func TestLocalDriver_CreateExclusive(t *testing.T) {
	driver := NewLocalDriver(t.TempDir())

	_, err := driver.Create("test")
	require.NoError(t, err)

	_, err = driver.Create("test")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestLocalDriver_CreateThroughSymlinkedRoot(t *testing.T) {
	tmpDir := t.TempDir()
	realRoot := filepath.Join(tmpDir, "real")
	require.NoError(t, os.MkdirAll(filepath.Join(realRoot, VolumesDir), 0755))

	linkedRoot := filepath.Join(tmpDir, "linked")
	require.NoError(t, os.Symlink(realRoot, linkedRoot))

	driver := NewLocalDriver(linkedRoot)
	mountpoint, err := driver.Create("test")
	require.NoError(t, err)

	// Stored in canonical form
	canonicalRoot, err := filepath.EvalSymlinks(realRoot)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(canonicalRoot, VolumesDir, "test"), mountpoint)

	// Containment still holds when the configured root is a symlink
	exists, err := driver.Verify(mountpoint)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalDriver_VerifyAndRemoveTree(t *testing.T) {
	driver := NewLocalDriver(t.TempDir())

	mountpoint, err := driver.Create("test")
	require.NoError(t, err)

	testFile := filepath.Join(mountpoint, "test.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("test"), 0644))

	exists, err := driver.Verify(mountpoint)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, driver.RemoveTree(mountpoint))
	assert.NoDirExists(t, mountpoint)

	exists, err = driver.Verify(mountpoint)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalDriver_RemoveTreeRefusesSymlink(t *testing.T) {
	tmpDir := t.TempDir()
	driver := NewLocalDriver(tmpDir)

	mountpoint, err := driver.Create("test")
	require.NoError(t, err)

	victim := filepath.Join(tmpDir, "victim")
	require.NoError(t, os.Mkdir(victim, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(victim, "f"), []byte("x"), 0644))

	// Swapped after Verify would have passed
	require.NoError(t, os.Remove(mountpoint))
	require.NoError(t, os.Symlink(victim, mountpoint))

	err = driver.RemoveTree(mountpoint)
	assert.ErrorIs(t, err, validation.ErrSymlinkNotAllowed)
	assert.FileExists(t, filepath.Join(victim, "f"))
}

func TestLocalDriver_RemoveTreeRefusesMovedMountpoint(t *testing.T) {
	tmpDir := t.TempDir()
	driver := NewLocalDriver(tmpDir)

	mountpoint, err := driver.Create("test")
	require.NoError(t, err)

	victim := filepath.Join(tmpDir, "victim")
	require.NoError(t, os.MkdirAll(filepath.Join(victim, "test"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(victim, "test", "f"), []byte("x"), 0644))

	// The last path component is a real directory, its parent is not
	require.NoError(t, os.RemoveAll(driver.BasePath()))
	require.NoError(t, os.Symlink(victim, driver.BasePath()))

	err = driver.RemoveTree(mountpoint)
	assert.ErrorIs(t, err, ErrMountpointEscaped)
	assert.FileExists(t, filepath.Join(victim, "test", "f"))
}

func TestLocalDriver_Discard(t *testing.T) {
	driver := NewLocalDriver(t.TempDir())

	mountpoint, err := driver.Create("empty")
	require.NoError(t, err)
	require.NoError(t, driver.Discard(mountpoint))
	assert.NoDirExists(t, mountpoint)

	mountpoint, err = driver.Create("full")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(mountpoint, "f"), []byte("x"), 0644))
	assert.Error(t, driver.Discard(mountpoint))
	assert.FileExists(t, filepath.Join(mountpoint, "f"))
}

func TestLocalDriver_Mount(t *testing.T) {
	driver := NewLocalDriver(t.TempDir())

	mountpoint, err := driver.Create("test")
	require.NoError(t, err)

	path, err := driver.Mount(mountpoint)
	require.NoError(t, err)
	assert.Equal(t, mountpoint, path)

	require.NoError(t, os.Remove(mountpoint))
	_, err = driver.Mount(mountpoint)
	assert.Error(t, err)
}
