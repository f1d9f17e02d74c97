package sshkeys

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/storage"
)

const (
	PrivateKeyPerm os.FileMode = 0600
	PublicKeyPerm  os.FileMode = 0644
)

// Materializer writes a decrypted vars document out as SSH key files.
type Materializer struct {
	Store storage.Store
}

// Materialize decodes document and writes destination.pub, then destination.
//
// If destination already exists nothing is decoded or written and it
// returns false. The public key goes first so a failure never leaves a
// private key without its .pub; a rerun accepts a .pub it wrote earlier.
// The private key is created with mode 0600 in the same call that creates
// it, never chmod-ed afterwards. An existing public key file is left alone;
// it is an error only if its content differs.
func (m Materializer) Materialize(document []byte, destination string) (bool, error) {
	exists, err := m.Store.Exists(destination)
	if err != nil {
		return false, fmt.Errorf("checking for existing key %s: %w", destination, err)
	}
	if exists {
		return false, nil
	}

	kp, err := Decode(document)
	if err != nil {
		return false, err
	}

	publicPath := PublicKeyPath(destination)
	err = m.Store.ExclusiveCreate(publicPath, []byte(kp.PublicKey), PublicKeyPerm)
	if errors.Is(err, kerrors.ErrAlreadyExists) {
		existing, readErr := m.Store.ReadFile(publicPath)
		if readErr != nil {
			return false, fmt.Errorf("reading existing public key: %w", readErr)
		}
		if !bytes.Equal(existing, []byte(kp.PublicKey)) {
			return false, fmt.Errorf("public key %s differs from the vaulted key and was left untouched: %w", publicPath, err)
		}
	} else if err != nil {
		return false, fmt.Errorf("writing public key: %w", err)
	}

	err = m.Store.ExclusiveCreate(destination, []byte(kp.PrivateKey), PrivateKeyPerm)
	if errors.Is(err, kerrors.ErrAlreadyExists) {
		// Lost a race with another writer; their keys stand.
		return false, nil
	}
	if err != nil {
		return true, fmt.Errorf("writing private key: %w", err)
	}

	return true, nil
}
