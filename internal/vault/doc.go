// Package vault acquires the ansible-vault passphrase and runs ansible-vault.
//
// # Passphrase Acquisition
//
// PasswordSource.Resolve reads the first line of a passphrase file, or
// prompts with echo disabled when no file is given. PasswordStore.Persist
// writes the passphrase to the per-user vault password file with
// exclusive-create semantics; an existing file is never rewritten. What
// happens when it already exists is an OverwritePolicy:
//
//   - ReuseIfExists: the existing file is authoritative and is returned as is
//   - FailIfExists: Persist fails with ErrAlreadyExists
//
// # Transforms
//
// Transform.Apply runs `ansible-vault encrypt|decrypt <file>
// --vault-password-file <passfile>`, which rewrites the file in place.
// Whether a non-zero exit status counts as failure is a TrustLevel:
//
//   - CheckExitStatus (default): non-zero exit is ErrToolExitStatus
//   - TrustSpawnOnly: only spawn failures are errors; the exit status is
//     reported in the result but otherwise ignored
package vault
