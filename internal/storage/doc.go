// Package storage is the filesystem layer sshvault writes secrets through.
//
// Every file that must never be clobbered (the vault password file, the
// vars document, both key files) is written with ExclusiveCreate. It opens
// with O_CREATE|O_EXCL so the existence check and the create are one atomic
// step, and it creates the file with its final permission bits so a private
// key is never readable by group or others, not even briefly.
//
// Store is an interface so workflows can be tested against a real
// temporary directory or a wrapper that injects failures.
package storage
