package vault

import (
	"errors"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/storage"
)

// PassphraseFilePerm keeps the persisted passphrase readable by its owner only.
const PassphraseFilePerm os.FileMode = 0600

// PasswordStore persists the passphrase to the vault password file ansible-vault reads.
type PasswordStore struct {
	Path   string
	Policy OverwritePolicy
	Store  storage.Store
}

// PersistResult reports where the passphrase lives and whether an existing file was kept.
type PersistResult struct {
	Path   string
	Reused bool
}

// Persist writes passphrase to s.Path as raw bytes, with no trailing newline.
// An existing file is never modified: under ReuseIfExists it is returned as
// is, under FailIfExists Persist fails with ErrAlreadyExists.
func (s PasswordStore) Persist(passphrase string) (*PersistResult, error) {
	err := s.Store.ExclusiveCreate(s.Path, []byte(passphrase), PassphraseFilePerm)
	switch {
	case err == nil:
		return &PersistResult{Path: s.Path}, nil
	case errors.Is(err, kerrors.ErrAlreadyExists) && s.Policy == ReuseIfExists:
		return &PersistResult{Path: s.Path, Reused: true}, nil
	case errors.Is(err, kerrors.ErrAlreadyExists):
		return nil, fmt.Errorf("vault password file %s already exists: %w", s.Path, err)
	default:
		return nil, fmt.Errorf("writing vault password file: %w", err)
	}
}
