// Package workflows provides the high-level orchestration behind sshvault commands.
//
// Workflows compose the vault, sshkeys and storage packages into complete
// user-facing operations. They are independent of CLI concerns like flag
// parsing, spinners and output formatting.
//
// # Lifecycles
//
//   - Provision: resolve and persist the passphrase, generate a keypair,
//     write it as a YAML vars file and encrypt that file with ansible-vault.
//   - Restore: resolve and persist the passphrase, decrypt the vars file,
//     write the key files and encrypt the vars file again. The re-encrypt
//     step runs even when writing the keys failed.
//   - Run: Provision when the vars file is absent, Restore when it exists.
//
// Existing key files, passphrase files and vars files are never overwritten.
//
// # Other Workflows
//
//   - Doctor: health checks on tools, file permissions and key pairing
//   - Log: reads and filters the audit trail
//
// # Error Handling
//
// Lifecycle failures are returned as *errors.StageError naming the stage
// and path, wrapping sentinel errors from the internal/errors package:
//
//	result, err := workflows.Run(ctx, opts)
//	if errors.Is(err, kerrors.ErrReencryptFailed) {
//	    // The vars file may be sitting on disk in plaintext.
//	}
//
// The Result is returned even on failure, with its Outcome set.
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// It is passed to the external tools; no deadline is applied by default.
package workflows
