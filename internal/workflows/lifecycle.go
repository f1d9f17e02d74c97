package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/sshvault/internal/audit"
	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/sshkeys"
	"github.com/PolarWolf314/sshvault/internal/vault"
)

// VarsFilePerm is used for the plaintext vars document before it is encrypted.
const VarsFilePerm = 0600

// Operation names a lifecycle.
type Operation string

const (
	OperationProvision Operation = "provision"
	OperationRestore   Operation = "restore"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeProvisioned                  Outcome = "Provisioned"
	OutcomeRestored                     Outcome = "Restored"
	OutcomeRestoredWithReencryptFailure Outcome = "RestoredWithReencryptFailure"
	OutcomeFailed                       Outcome = "Failed"
)

// Result contains the outcome of a provisioning or restore run.
type Result struct {
	Operation Operation
	Outcome   Outcome

	DestinationPath string
	KeyFile         string
	PublicKeyFile   string

	// PassphraseFile is where the passphrase is persisted.
	PassphraseFile string
	// PassphraseReused is true when PassphraseFile already existed.
	PassphraseReused bool
	// PassphraseMismatch is true when an explicitly supplied passphrase was
	// not persisted because the existing PassphraseFile holds a different one.
	// ansible-vault uses the existing file.
	PassphraseMismatch bool

	// KeysGenerated is true when ssh-keygen created the key files.
	KeysGenerated bool
	// KeysWritten is true when restore wrote the key files.
	KeysWritten bool

	// Fingerprint is the SHA256 fingerprint of the public key, when readable.
	Fingerprint string

	// Unverified is true when ansible-vault exited non-zero but exit
	// status checking was disabled.
	Unverified bool
}

// Run provisions when the destination does not exist yet and restores
// when it does.
func Run(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	exists, err := opts.Store.Exists(opts.DestinationPath)
	if err != nil {
		return finish(opts, newResult(OperationProvision, opts),
			kerrors.NewStageError(kerrors.StageCheckDestination, opts.DestinationPath, err))
	}
	if exists {
		return Restore(ctx, opts)
	}
	return Provision(ctx, opts)
}

// Provision generates a keypair and stores it as an encrypted vars file.
//
// Returns a *StageError wrapping ErrDestinationExists if the destination
// is already there. On any failure the returned Result has OutcomeFailed.
func Provision(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	result := newResult(OperationProvision, opts)
	return finish(opts, result, provision(ctx, opts, result))
}

// Restore decrypts the vars file, writes the key files and encrypts the
// vars file again.
//
// Re-encryption runs even when writing the keys failed. A failed
// re-encryption yields OutcomeRestoredWithReencryptFailure and an error
// wrapping ErrReencryptFailed, since the vars file may be left in plaintext.
func Restore(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	result := newResult(OperationRestore, opts)
	return finish(opts, result, restore(ctx, opts, result))
}

func newResult(op Operation, opts Options) *Result {
	return &Result{
		Operation:       op,
		Outcome:         OutcomeFailed,
		DestinationPath: opts.DestinationPath,
		KeyFile:         opts.KeyFile,
		PublicKeyFile:   sshkeys.PublicKeyPath(opts.KeyFile),
		PassphraseFile:  opts.VaultPassFile,
	}
}

func provision(ctx context.Context, opts Options, result *Result) error {
	opts.stage(kerrors.StageCheckDestination)
	exists, err := opts.Store.Exists(opts.DestinationPath)
	if err != nil {
		return kerrors.NewStageError(kerrors.StageCheckDestination, opts.DestinationPath, err)
	}
	if exists {
		return kerrors.NewStageError(kerrors.StageCheckDestination, opts.DestinationPath, kerrors.ErrDestinationExists)
	}

	if err := preparePassphrase(opts, result); err != nil {
		return err
	}

	opts.stage(kerrors.StageGenerateKeys)
	generated, err := opts.generator().Generate(ctx, opts.KeyFile, opts.Comment)
	if err != nil {
		return kerrors.NewStageError(kerrors.StageGenerateKeys, opts.KeyFile, err)
	}
	result.KeysGenerated = generated

	opts.stage(kerrors.StageWriteDocument)
	kp, err := sshkeys.ReadKeyPair(opts.Store, opts.KeyFile)
	if err != nil {
		return kerrors.NewStageError(kerrors.StageWriteDocument, opts.KeyFile, err)
	}
	document, err := sshkeys.Encode(kp)
	if err != nil {
		return kerrors.NewStageError(kerrors.StageWriteDocument, opts.DestinationPath, err)
	}
	if err := opts.Store.ExclusiveCreate(opts.DestinationPath, document, VarsFilePerm); err != nil {
		if errors.Is(err, kerrors.ErrAlreadyExists) {
			err = errors.Join(kerrors.ErrDestinationExists, err)
		}
		return kerrors.NewStageError(kerrors.StageWriteDocument, opts.DestinationPath, err)
	}
	result.Fingerprint = fingerprint([]byte(kp.PublicKey))

	opts.stage(kerrors.StageEncrypt)
	res, err := opts.transform().Apply(ctx, vault.Encrypt, opts.DestinationPath, result.PassphraseFile)
	if err != nil {
		// The key files are still on disk, so drop the plaintext copy.
		if rmErr := opts.Store.Remove(opts.DestinationPath); rmErr != nil {
			err = errors.Join(err, fmt.Errorf("removing plaintext vars file: %w", rmErr))
		}
		return kerrors.NewStageError(kerrors.StageEncrypt, opts.DestinationPath, err)
	}
	result.Unverified = res.ExitCode != 0

	result.Outcome = OutcomeProvisioned
	return nil
}

func restore(ctx context.Context, opts Options, result *Result) error {
	opts.stage(kerrors.StageCheckDestination)
	exists, err := opts.Store.Exists(opts.DestinationPath)
	if err != nil {
		return kerrors.NewStageError(kerrors.StageCheckDestination, opts.DestinationPath, err)
	}
	if !exists {
		return kerrors.NewStageError(kerrors.StageCheckDestination, opts.DestinationPath, kerrors.ErrDestinationMissing)
	}

	if err := preparePassphrase(opts, result); err != nil {
		return err
	}

	// A failed decrypt leaves the file encrypted; encrypting it again would
	// double-wrap it, so there is nothing to undo.
	opts.stage(kerrors.StageDecrypt)
	res, err := opts.transform().Apply(ctx, vault.Decrypt, opts.DestinationPath, result.PassphraseFile)
	if err != nil {
		return kerrors.NewStageError(kerrors.StageDecrypt, opts.DestinationPath, err)
	}
	result.Unverified = res.ExitCode != 0

	opts.stage(kerrors.StageMaterialize)
	materializeErr := materialize(opts, result)

	opts.stage(kerrors.StageReencrypt)
	res, err = opts.transform().Apply(ctx, vault.Encrypt, opts.DestinationPath, result.PassphraseFile)
	if err != nil {
		result.Outcome = OutcomeRestoredWithReencryptFailure
		return kerrors.NewStageError(kerrors.StageReencrypt, opts.DestinationPath,
			errors.Join(kerrors.ErrReencryptFailed, err, materializeErr))
	}
	result.Unverified = result.Unverified || res.ExitCode != 0

	if materializeErr != nil {
		return materializeErr
	}

	if public, err := opts.Store.ReadFile(result.PublicKeyFile); err == nil {
		result.Fingerprint = fingerprint(public)
	}

	result.Outcome = OutcomeRestored
	return nil
}

func materialize(opts Options, result *Result) error {
	document, err := opts.Store.ReadFile(opts.DestinationPath)
	if err != nil {
		return kerrors.NewStageError(kerrors.StageMaterialize, opts.DestinationPath, err)
	}
	written, err := opts.materializer().Materialize(document, opts.KeyFile)
	result.KeysWritten = written
	if err != nil {
		return kerrors.NewStageError(kerrors.StageMaterialize, opts.KeyFile, err)
	}
	return nil
}

// preparePassphrase resolves the passphrase and persists it for ansible-vault.
//
// An explicit PassphraseFile wins. Otherwise an existing VaultPassFile is
// read rather than prompting again. Otherwise the user is prompted.
func preparePassphrase(opts Options, result *Result) error {
	opts.stage(kerrors.StageResolvePassphrase)

	source := opts.PassphraseFile
	if source == "" {
		exists, err := opts.Store.Exists(opts.VaultPassFile)
		if err != nil {
			return kerrors.NewStageError(kerrors.StageResolvePassphrase, opts.VaultPassFile, err)
		}
		if exists {
			source = opts.VaultPassFile
		}
	}

	passphrase, err := opts.passwordSource().Resolve(source)
	if err != nil {
		return kerrors.NewStageError(kerrors.StageResolvePassphrase, source, err)
	}

	opts.stage(kerrors.StagePersistPassphrase)
	persisted, err := opts.passwordStore().Persist(passphrase)
	if err != nil {
		return kerrors.NewStageError(kerrors.StagePersistPassphrase, opts.VaultPassFile, err)
	}
	result.PassphraseFile = persisted.Path
	result.PassphraseReused = persisted.Reused

	if persisted.Reused && source != persisted.Path {
		current, err := opts.passwordSource().Resolve(persisted.Path)
		result.PassphraseMismatch = err != nil || current != passphrase
	}
	return nil
}

func fingerprint(publicKey []byte) string {
	info, err := sshkeys.InspectPublicKey(publicKey)
	if err != nil {
		return ""
	}
	return info.Fingerprint
}

// finish records the run in the audit trail and hands back the result.
func finish(opts Options, result *Result, err error) (*Result, error) {
	entry := audit.Entry{
		Operation:   string(result.Operation),
		Outcome:     string(result.Outcome),
		Destination: result.DestinationPath,
		KeyFile:     result.KeyFile,
		Fingerprint: result.Fingerprint,
	}

	if err != nil {
		var stageErr *kerrors.StageError
		if errors.As(err, &stageErr) {
			entry.Stage = string(stageErr.Stage)
		}
		entry.Error = err.Error()
	}

	audit.Log(opts.AuditLogPath, entry)
	return result, err
}
