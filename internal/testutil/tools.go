package testutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/toolexec"
)

// Call is one recorded tool invocation.
type Call struct {
	Name string
	Args []string
}

type recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *recorder) record(name string, args []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
}

// Calls returns a copy of the recorded invocations.
func (r *recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// StubTool returns a canned result for every call.
type StubTool struct {
	recorder
	Result *toolexec.Result
	Err    error
}

func (s *StubTool) Run(ctx context.Context, name string, args ...string) (*toolexec.Result, error) {
	s.record(name, args)
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Result == nil {
		return &toolexec.Result{}, nil
	}
	return s.Result, nil
}

// SpawnFailure is the error a tool returns when its binary cannot be started.
func SpawnFailure(name string) error {
	return fmt.Errorf("%w: running %s: executable file not found in $PATH", kerrors.ErrExternalTool, name)
}

// FakeKeygen emulates `ssh-keygen -t ed25519 -C comment -f path -q -N ""`.
type FakeKeygen struct {
	recorder
	// ExitCode, when non-zero, is returned without writing any files.
	ExitCode int
	// SkipPublic writes only the private key, to break the postcondition.
	SkipPublic bool
}

func (k *FakeKeygen) Run(ctx context.Context, name string, args ...string) (*toolexec.Result, error) {
	k.record(name, args)
	if k.ExitCode != 0 {
		return &toolexec.Result{ExitCode: k.ExitCode, Stderr: []byte("ssh-keygen: simulated failure")}, nil
	}

	path := flagValue(args, "-f")
	comment := flagValue(args, "-C")
	if path == "" {
		return &toolexec.Result{ExitCode: 1, Stderr: []byte("ssh-keygen: no -f given")}, nil
	}
	if _, err := os.Stat(path); err == nil {
		return &toolexec.Result{ExitCode: 1, Stderr: []byte(path + " already exists.")}, nil
	}

	priv, pub, err := GenerateKeyPair(comment)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(priv), 0600); err != nil {
		return &toolexec.Result{ExitCode: 1, Stderr: []byte(err.Error())}, nil
	}
	if !k.SkipPublic {
		if err := os.WriteFile(path+".pub", []byte(pub), 0644); err != nil {
			return &toolexec.Result{ExitCode: 1, Stderr: []byte(err.Error())}, nil
		}
	}
	return &toolexec.Result{}, nil
}

const fakeVaultHeader = "$ANSIBLE_VAULT;1.1;AES256"

// FakeVault emulates `ansible-vault encrypt|decrypt file --vault-password-file pass`.
type FakeVault struct {
	recorder
	// FailEncrypt makes every encrypt exit 1 without touching the file.
	FailEncrypt bool
	// FailDecrypt makes every decrypt exit 1 without touching the file.
	FailDecrypt bool
}

func (v *FakeVault) Run(ctx context.Context, name string, args ...string) (*toolexec.Result, error) {
	v.record(name, args)
	if len(args) < 2 {
		return failure("usage: ansible-vault encrypt|decrypt FILE"), nil
	}
	verb, target := args[0], args[1]
	passFile := flagValue(args, "--vault-password-file")

	pass, err := os.ReadFile(passFile)
	if err != nil {
		return failure("ERROR! The vault password file " + passFile + " was not found"), nil
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return failure("ERROR! could not read " + target), nil
	}

	var out []byte
	switch verb {
	case "encrypt":
		if v.FailEncrypt {
			return failure("ERROR! simulated encrypt failure"), nil
		}
		if bytes.HasPrefix(data, []byte(fakeVaultHeader)) {
			return failure("ERROR! input is already encrypted"), nil
		}
		out = Seal(string(pass), data)
	case "decrypt":
		if v.FailDecrypt {
			return failure("ERROR! simulated decrypt failure"), nil
		}
		out, err = Open(string(pass), data)
		if err != nil {
			return failure("ERROR! " + err.Error()), nil
		}
	default:
		return failure("ERROR! unknown action " + verb), nil
	}

	info, err := os.Stat(target)
	if err != nil {
		return failure(err.Error()), nil
	}
	if err := os.WriteFile(target, out, info.Mode().Perm()); err != nil {
		return failure(err.Error()), nil
	}
	return &toolexec.Result{}, nil
}

// Seal wraps plaintext the way FakeVault encrypt does.
func Seal(passphrase string, plaintext []byte) []byte {
	return []byte(fakeVaultHeader + "\n" + passDigest(passphrase) + "\n" + hex.EncodeToString(plaintext) + "\n")
}

// Open reverses Seal and fails on a wrong passphrase.
func Open(passphrase string, data []byte) ([]byte, error) {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 || lines[0] != fakeVaultHeader {
		return nil, fmt.Errorf("input is not vault encrypted data")
	}
	if lines[1] != passDigest(passphrase) {
		return nil, fmt.Errorf("Decryption failed (no vault secrets were found that could decrypt)")
	}
	return hex.DecodeString(lines[2])
}

// ansible-vault strips trailing whitespace from password files.
func passDigest(passphrase string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(passphrase, " \t\r\n")))
	return hex.EncodeToString(sum[:])
}

func failure(msg string) *toolexec.Result {
	return &toolexec.Result{ExitCode: 1, Stderr: []byte(msg)}
}

func flagValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// Toolbox routes ssh-keygen calls to Keygen and everything else to Vault.
type Toolbox struct {
	Keygen *FakeKeygen
	Vault  *FakeVault
}

// NewToolbox returns a Toolbox with working fakes.
func NewToolbox() *Toolbox {
	return &Toolbox{Keygen: &FakeKeygen{}, Vault: &FakeVault{}}
}

func (t *Toolbox) Run(ctx context.Context, name string, args ...string) (*toolexec.Result, error) {
	if strings.Contains(name, "keygen") {
		return t.Keygen.Run(ctx, name, args...)
	}
	return t.Vault.Run(ctx, name, args...)
}
