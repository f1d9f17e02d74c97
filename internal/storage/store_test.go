package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
)

func TestExclusiveCreate_WritesWithPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "nested", "dir", "secret")

	require.NoError(t, store.ExclusiveCreate(path, []byte("top secret"), 0600))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, DirPerm, dirInfo.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "top secret", string(data))
}

func TestExclusiveCreate_RefusesExistingFile(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("A"), 0600))

	err := store.ExclusiveCreate(path, []byte("B"), 0600)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrAlreadyExists))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))
}

func TestExclusiveCreate_IgnoresUmaskForPublicFiles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "id.pub")

	require.NoError(t, store.ExclusiveCreate(path, []byte("ssh-ed25519 AAAA"), 0644))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestExists(t *testing.T) {
	store := NewFileStore()
	dir := t.TempDir()

	ok, err := store.Exists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Exists(dir)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReadFile_MissingIsIOAndNotExist(t *testing.T) {
	store := NewFileStore()

	_, err := store.ReadFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrIO))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestRemove_MissingIsNotAnError(t *testing.T) {
	store := NewFileStore()
	assert.NoError(t, store.Remove(filepath.Join(t.TempDir(), "missing")))
}
