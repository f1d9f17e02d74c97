package vault

import (
	"bytes"
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/toolexec"
)

// Header starts every file ansible-vault has encrypted.
const Header = "$ANSIBLE_VAULT;"

// IsVaulted reports whether data looks like ansible-vault output.
func IsVaulted(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(Header))
}

// Mode selects the ansible-vault subcommand.
type Mode int

const (
	Encrypt Mode = iota
	Decrypt
)

func (m Mode) String() string {
	if m == Decrypt {
		return "decrypt"
	}
	return "encrypt"
}

// Transform encrypts or decrypts a file in place with ansible-vault.
type Transform struct {
	Tool   toolexec.Tool
	Binary string
	Trust  TrustLevel
}

// TransformResult describes a finished ansible-vault run.
type TransformResult struct {
	Mode     Mode
	Target   string
	ExitCode int
	// Verified is true when the exit status was checked and was zero.
	Verified bool
	// Output is the tool's stderr, or stdout when stderr was empty.
	Output string
}

// Args returns the ansible-vault arguments for mode on target.
func Args(mode Mode, target, passFile string) []string {
	return []string{mode.String(), target, "--vault-password-file", passFile}
}

// Apply runs the transform and returns once ansible-vault exits.
//
// Spawn failures are always errors. A non-zero exit is ErrToolExitStatus
// under CheckExitStatus; under TrustSpawnOnly it is only recorded in the
// result, and the caller may be told a failed transform succeeded.
func (t Transform) Apply(ctx context.Context, mode Mode, target, passFile string) (*TransformResult, error) {
	binary := t.Binary
	if binary == "" {
		binary = "ansible-vault"
	}

	res, err := t.Tool.Run(ctx, binary, Args(mode, target, passFile)...)
	if err != nil {
		return nil, fmt.Errorf("ansible-vault %s %s: %w", mode, target, err)
	}

	result := &TransformResult{
		Mode:     mode,
		Target:   target,
		ExitCode: res.ExitCode,
		Output:   res.Summary(),
	}

	if t.Trust == TrustSpawnOnly {
		return result, nil
	}

	if !res.Success() {
		return result, fmt.Errorf("%w: %w: ansible-vault %s %s exited with status %d: %s",
			kerrors.ErrExternalTool, kerrors.ErrToolExitStatus, mode, target, res.ExitCode, res.Summary())
	}

	result.Verified = true
	return result, nil
}
