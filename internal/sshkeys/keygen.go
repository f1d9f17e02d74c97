package sshkeys

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/storage"
	"github.com/PolarWolf314/sshvault/internal/toolexec"
)

// PublicKeySuffix is appended to the private key path by ssh-keygen.
const PublicKeySuffix = ".pub"

// PublicKeyPath returns the public key file that goes with a private key file.
func PublicKeyPath(privatePath string) string {
	return privatePath + PublicKeySuffix
}

// KeygenArgs returns the ssh-keygen arguments for an unencrypted ed25519 key.
func KeygenArgs(path, comment string) []string {
	return []string{"-t", "ed25519", "-C", comment, "-f", path, "-q", "-N", ""}
}

// Generator creates keypairs with ssh-keygen.
type Generator struct {
	Tool   toolexec.Tool
	Binary string
	Store  storage.Store
}

// Generate creates an ed25519 keypair at path and path.pub. If path already
// exists nothing is run and Generate returns false.
func (g Generator) Generate(ctx context.Context, path, comment string) (bool, error) {
	exists, err := g.Store.Exists(path)
	if err != nil {
		return false, fmt.Errorf("checking for existing key %s: %w", path, err)
	}
	if exists {
		return false, nil
	}

	if path == "" || !utf8.ValidString(path) || strings.ContainsRune(path, 0) {
		return false, fmt.Errorf("%w: cannot pass key path %q to ssh-keygen", kerrors.ErrExternalTool, path)
	}

	if err := g.Store.EnsureDir(filepath.Dir(path)); err != nil {
		return false, err
	}

	binary := g.Binary
	if binary == "" {
		binary = "ssh-keygen"
	}

	res, err := g.Tool.Run(ctx, binary, KeygenArgs(path, comment)...)
	if err != nil {
		return false, err
	}
	if !res.Success() {
		return false, fmt.Errorf("%w: %w: ssh-keygen exited with status %d: %s",
			kerrors.ErrExternalTool, kerrors.ErrToolExitStatus, res.ExitCode, res.Summary())
	}

	for _, p := range []string{path, PublicKeyPath(path)} {
		ok, err := g.Store.Exists(p)
		if err != nil {
			return true, err
		}
		if !ok {
			return true, fmt.Errorf("%w: ssh-keygen did not create %s", kerrors.ErrExternalTool, p)
		}
	}

	return true, nil
}

// ReadKeyPair loads the private key at path and its public key at path.pub.
func ReadKeyPair(store storage.Store, path string) (KeyPair, error) {
	private, err := store.ReadFile(path)
	if err != nil {
		return KeyPair{}, fmt.Errorf("reading private key: %w", err)
	}
	public, err := store.ReadFile(PublicKeyPath(path))
	if err != nil {
		return KeyPair{}, fmt.Errorf("reading public key: %w", err)
	}
	return KeyPair{PublicKey: string(public), PrivateKey: string(private)}, nil
}
