// Package configs resolves sshvault's settings.
//
// Nothing in sshvault reads the home directory directly. Every default path
// is derived from a PathResolver, so tests can point the whole tool at a
// temporary directory:
//
//	settings, err := configs.Load(configs.NewTestResolver(t.TempDir()))
//
// # Layers
//
// Later layers win:
//
//  1. Defaults derived from the resolver (see Defaults)
//  2. <config dir>/config.toml, decoded strictly with BurntSushi/toml
//  3. SSHVAULT_* environment variables, read with envconfig
//  4. Command-line flags, applied by the cmd package
//
// # Default Locations
//
//   - Vars file:           ~/.ansible/vars/ssh_vars.yaml
//   - Vault password file: ~/.vault_pass.txt
//   - Private key:         ~/.ssh/ansibleuser (public key alongside as .pub)
//   - Audit log:           $XDG_DATA_HOME/sshvault/audit.jsonl
//
// When no home directory can be resolved, the file names are used relative
// to the working directory.
package configs
