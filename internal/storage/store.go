package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
)

// DirPerm is used for any parent directory created on the way to a secret.
const DirPerm os.FileMode = 0700

// Store defines the filesystem operations the lifecycle needs.
type Store interface {
	// Exists reports whether path exists. Errors other than "not found" are returned.
	Exists(path string) (bool, error)

	// ReadFile returns the contents of path.
	ReadFile(path string) ([]byte, error)

	// ExclusiveCreate creates path with perm and writes data to it.
	// It fails with ErrAlreadyExists, without touching the file, if path exists.
	ExclusiveCreate(path string, data []byte, perm os.FileMode) error

	// Remove deletes path. A missing file is not an error.
	Remove(path string) error

	// EnsureDir creates dir and any parents with DirPerm.
	EnsureDir(dir string) error

	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
}

// FileStore implements Store on the local filesystem.
type FileStore struct{}

// NewFileStore returns a Store backed by the local filesystem.
func NewFileStore() *FileStore {
	return &FileStore{}
}

func (s *FileStore) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, kerrors.IO(err)
}

func (s *FileStore) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kerrors.IO(err)
	}
	return data, nil
}

func (s *FileStore) Stat(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, kerrors.IO(err)
	}
	return info, nil
}

func (s *FileStore) ExclusiveCreate(path string, data []byte, perm os.FileMode) error {
	if err := s.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", kerrors.ErrAlreadyExists, path)
		}
		return fmt.Errorf("failed to create %s: %w", path, kerrors.IO(err))
	}

	// The umask can only remove bits, but set the exact mode before any
	// content lands so the result never depends on the caller's umask.
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to set permissions on %s: %w", path, kerrors.IO(err))
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, kerrors.IO(err))
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to sync %s: %w", path, kerrors.IO(err))
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, kerrors.IO(err))
	}

	return nil
}

func (s *FileStore) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return kerrors.IO(err)
	}
	return nil
}

func (s *FileStore) EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, kerrors.IO(err))
	}
	return nil
}
