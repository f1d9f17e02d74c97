package vault

import (
	"bytes"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/storage"
	"github.com/PolarWolf314/sshvault/internal/utils"
)

// PassphrasePrompt is shown when no passphrase file is available.
const PassphrasePrompt = "Enter the ansible vault password you would like to use: "

// PromptFunc reads a secret from the user with echo disabled.
type PromptFunc func(prompt string) ([]byte, error)

// PasswordSource resolves the vault passphrase from a file or the terminal.
type PasswordSource struct {
	Store  storage.Store
	Prompt PromptFunc
}

// NewPasswordSource returns a PasswordSource that prompts on the controlling terminal.
func NewPasswordSource(store storage.Store) PasswordSource {
	return PasswordSource{Store: store, Prompt: utils.ReadPassphrase}
}

// Resolve returns the passphrase.
//
// With a path, the first line of the file is returned verbatim, minus its
// line terminator; later lines are ignored. A zero-byte file is
// ErrEmptyInput. Without a path the user is prompted and whatever they
// type, including nothing, is returned.
func (s PasswordSource) Resolve(path string) (string, error) {
	if path == "" {
		if s.Prompt == nil {
			return "", errors.New("no passphrase file given and no prompt available")
		}
		passphrase, err := s.Prompt(PassphrasePrompt)
		if err != nil {
			return "", err
		}
		return string(passphrase), nil
	}

	data, err := s.Store.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading passphrase file %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", kerrors.ErrEmptyInput, path)
	}

	return string(firstLine(data)), nil
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return bytes.TrimSuffix(data, []byte("\r"))
}
