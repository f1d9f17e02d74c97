package workflows

import (
	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/sshkeys"
	"github.com/PolarWolf314/sshvault/internal/storage"
	"github.com/PolarWolf314/sshvault/internal/toolexec"
	"github.com/PolarWolf314/sshvault/internal/utils"
	"github.com/PolarWolf314/sshvault/internal/vault"
)

// Options configures a provisioning or restore run.
type Options struct {
	// DestinationPath is the vaulted vars file.
	DestinationPath string

	// PassphraseFile is an explicit file to read the passphrase from.
	// Empty means reuse VaultPassFile if it exists, otherwise prompt.
	PassphraseFile string

	// VaultPassFile is where the passphrase is persisted for ansible-vault.
	VaultPassFile string

	// KeyFile is the private key path; the public key is KeyFile + ".pub".
	KeyFile string

	// Comment is passed to ssh-keygen.
	Comment string

	// Policy decides what happens when VaultPassFile already exists.
	Policy vault.OverwritePolicy

	// Trust decides whether ansible-vault's exit status is checked.
	Trust vault.TrustLevel

	VaultBinary  string
	KeygenBinary string

	// AuditLogPath receives one entry per run. Empty disables the audit trail.
	AuditLogPath string

	// Store defaults to the local filesystem.
	Store storage.Store

	// Tool runs ssh-keygen and ansible-vault. Defaults to real processes.
	Tool toolexec.Tool

	// Prompt reads the passphrase when no file supplies it. Defaults to the terminal.
	Prompt vault.PromptFunc

	// OnStage, if set, is called as each stage starts.
	OnStage func(stage kerrors.Stage)
}

func (o Options) withDefaults() Options {
	if o.Store == nil {
		o.Store = storage.NewFileStore()
	}
	if o.Tool == nil {
		o.Tool = toolexec.NewExec()
	}
	if o.Prompt == nil {
		o.Prompt = utils.ReadPassphrase
	}
	return o
}

func (o Options) stage(stage kerrors.Stage) {
	if o.OnStage != nil {
		o.OnStage(stage)
	}
}

func (o Options) passwordSource() vault.PasswordSource {
	return vault.PasswordSource{Store: o.Store, Prompt: o.Prompt}
}

func (o Options) passwordStore() vault.PasswordStore {
	return vault.PasswordStore{Path: o.VaultPassFile, Policy: o.Policy, Store: o.Store}
}

func (o Options) transform() vault.Transform {
	return vault.Transform{Tool: o.Tool, Binary: o.VaultBinary, Trust: o.Trust}
}

func (o Options) generator() sshkeys.Generator {
	return sshkeys.Generator{Tool: o.Tool, Binary: o.KeygenBinary, Store: o.Store}
}

func (o Options) materializer() sshkeys.Materializer {
	return sshkeys.Materializer{Store: o.Store}
}
