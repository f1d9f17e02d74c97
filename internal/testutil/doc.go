// Package testutil provides fake external tools for tests.
//
// FakeKeygen stands in for ssh-keygen and writes a real ed25519 OpenSSH
// keypair. FakeVault stands in for ansible-vault and wraps files in a
// $ANSIBLE_VAULT envelope keyed on the password file, so a wrong password
// fails to decrypt just like the real tool. Both record every call.
package testutil
