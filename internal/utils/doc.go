// Package utils provides shared helpers for sshvault.
//
// # Filesystem Utilities
//   - ExpandHome: expands a leading ~ against a resolved home directory
//   - IsOwnerOnly: checks a mode grants nothing to group or others
//
// # String Utilities
//   - IsValidKeyComment: rejects comments that would break an authorized_keys line
//
// # System Utilities
//   - CurrentIdentity: user and host recorded in audit entries
//
// # Terminal Utilities
//   - ReadPassphrase: masked prompt using golang.org/x/term
package utils
