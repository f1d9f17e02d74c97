package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sshvault/internal/configs"
	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/ui"
	"github.com/PolarWolf314/sshvault/internal/utils"
	"github.com/PolarWolf314/sshvault/internal/vault"
	"github.com/PolarWolf314/sshvault/internal/workflows"
)

// lifecycleFlags are shared by init, provision and restore.
type lifecycleFlags struct {
	comment        string
	destination    string
	passphraseFile string
	keyFile        string
	policy         PolicyValue
	trust          TrustValue
}

var lifecycle lifecycleFlags

func resetLifecycleState() {
	lifecycle = lifecycleFlags{}
}

func addLifecycleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&lifecycle.comment, "comment", "c", "", "comment embedded in the generated key (default \"ansibleuser\")")
	cmd.Flags().StringVarP(&lifecycle.destination, "destination-path", "d", "", "vaulted vars file (default ~/.ansible/vars/ssh_vars.yaml)")
	cmd.Flags().StringVarP(&lifecycle.passphraseFile, "vault-pass-file", "p", "", "read the vault passphrase from the first line of this file")
	cmd.Flags().StringVarP(&lifecycle.keyFile, "filename", "f", "", "private key file (default ~/.ssh/ansibleuser)")
	cmd.Flags().Var(&lifecycle.policy, "passphrase-policy", "when the vault password file exists: reuse it or fail")
	cmd.Flags().Var(&lifecycle.trust, "vault-exit-status", "checked, or spawn-only to ignore ansible-vault's exit status")
}

// options merges the flags over the resolved settings.
func (f *lifecycleFlags) options(s *configs.Settings) (workflows.Options, error) {
	opts := workflows.Options{
		DestinationPath: s.DestinationPath,
		VaultPassFile:   s.VaultPassFile,
		KeyFile:         s.KeyFile,
		Comment:         s.Comment,
		VaultBinary:     s.VaultBinary,
		KeygenBinary:    s.KeygenBinary,
		AuditLogPath:    s.AuditLogPath,
		Tool:            toolRunner,
	}

	if f.comment != "" {
		if !utils.IsValidKeyComment(f.comment) {
			return opts, fmt.Errorf("--comment must be a single line: %q", f.comment)
		}
		opts.Comment = f.comment
	}
	if f.destination != "" {
		opts.DestinationPath = s.ExpandPath(f.destination)
	}
	if f.passphraseFile != "" {
		opts.PassphraseFile = s.ExpandPath(f.passphraseFile)
	}
	if f.keyFile != "" {
		opts.KeyFile = s.ExpandPath(f.keyFile)
	}

	policy, err := vault.ParseOverwritePolicy(s.PassphrasePolicy)
	if err != nil {
		return opts, err
	}
	if f.policy.Specified() {
		policy = f.policy.policy
	}
	opts.Policy = policy

	trust, err := vault.ParseTrustLevel(s.VaultExitStatus)
	if err != nil {
		return opts, err
	}
	if f.trust.Specified() {
		trust = f.trust.trust
	}
	opts.Trust = trust

	return opts, nil
}

type lifecycleFunc func(context.Context, workflows.Options) (*workflows.Result, error)

// runLifecycle drives one workflow behind a spinner and reports the result.
func runLifecycle(cmd *cobra.Command, name string, run lifecycleFunc) error {
	Logger.Infof("Starting %s command", name)
	out := cmd.OutOrStdout()

	opts, err := lifecycle.options(Settings)
	if err != nil {
		return err
	}
	Logger.Debugf("Vars file: %s", opts.DestinationPath)
	Logger.Debugf("Key file: %s", opts.KeyFile)
	Logger.Debugf("Vault password file: %s (policy %s)", opts.VaultPassFile, opts.Policy)
	Logger.Debugf("Vault exit status: %s", opts.Trust)

	spinner, cleanup := startSpinner("Checking vars file...", out)
	defer cleanup()

	opts.OnStage = func(stage kerrors.Stage) {
		Logger.Debugf("Stage %s", stage)
		spinner.Suffix = " " + stageMessage(stage)
	}
	// The spinner would draw over the hidden prompt.
	opts.Prompt = func(prompt string) ([]byte, error) {
		if spinner.Active() {
			spinner.Stop()
			defer spinner.Start()
		}
		return promptFunc(prompt)
	}

	result, err := run(cmd.Context(), opts)
	if err != nil {
		spinner.FinalMSG = formatLifecycleError(result, err)
		return reported(err)
	}

	if result.PassphraseReused {
		Logger.Infof("Vault password file %s already exists, leaving it as is", result.PassphraseFile)
	}
	if result.PassphraseMismatch {
		Logger.WarnfUser("the passphrase from %s differs from the existing vault password file %s, which was used instead",
			opts.PassphraseFile, result.PassphraseFile)
	}
	if result.Unverified {
		Logger.WarnfUser("ansible-vault exited non-zero and exit status checking is off; the vars file may not be encrypted")
	}

	spinner.FinalMSG = formatLifecycleResult(result)
	return nil
}

func formatLifecycleResult(result *workflows.Result) string {
	var msg, changes string
	switch result.Outcome {
	case workflows.OutcomeProvisioned:
		if result.KeysGenerated {
			msg = ui.Tick() + " Generated a new SSH keypair and vaulted it to " + ui.Path.Sprint(result.DestinationPath)
			changes = ui.Changes("created", result.KeyFile, result.PublicKeyFile, result.DestinationPath)
		} else {
			msg = ui.Tick() + " Vaulted the existing keypair at " + ui.Path.Sprint(result.KeyFile) +
				" to " + ui.Path.Sprint(result.DestinationPath)
			changes = ui.Changes("created", result.DestinationPath)
		}
	case workflows.OutcomeRestored:
		if result.KeysWritten {
			msg = ui.Tick() + " Restored SSH keys from " + ui.Path.Sprint(result.DestinationPath)
			changes = ui.Changes("created", result.KeyFile, result.PublicKeyFile)
		} else {
			msg = ui.Tick() + " SSH keys already present at " + ui.Path.Sprint(result.KeyFile) + ", left untouched"
		}
	default:
		msg = ui.Tick() + " " + string(result.Outcome)
	}

	if result.Fingerprint != "" {
		msg += "\n" + ui.Arrow() + " Fingerprint: " + ui.Highlight.Sprint(result.Fingerprint)
	}
	if changes != "" {
		msg += "\n" + changes
	}
	return msg
}

func formatLifecycleError(result *workflows.Result, err error) string {
	var stageErr *kerrors.StageError
	stage := ""
	if errors.As(err, &stageErr) {
		stage = ui.Stage.Sprint(string(stageErr.Stage)) + " "
	}

	switch {
	case result != nil && result.Outcome == workflows.OutcomeRestoredWithReencryptFailure:
		return ui.Cross() + " " + stage + err.Error() + "\n" +
			ui.Alert() + " " + ui.Path.Sprint(result.DestinationPath) + " may be sitting on disk in " + ui.Error.Sprint("plaintext") + "\n" +
			ui.Arrow() + " Run " + ui.Code.Sprintf("ansible-vault encrypt %s --vault-password-file %s", result.DestinationPath, result.PassphraseFile) + " as soon as possible"

	case result != nil && errors.Is(err, kerrors.ErrDestinationExists):
		return ui.Cross() + " " + stage + "Vars file " + ui.Path.Sprint(result.DestinationPath) + " already exists\n" +
			ui.Arrow() + " Run " + ui.Code.Sprint("sshvault restore") + " to restore keys from it"

	case result != nil && errors.Is(err, kerrors.ErrDestinationMissing):
		return ui.Cross() + " " + stage + "Vars file " + ui.Path.Sprint(result.DestinationPath) + " does not exist\n" +
			ui.Arrow() + " Run " + ui.Code.Sprint("sshvault provision") + " to create it"

	case errors.Is(err, kerrors.ErrEmptyInput):
		return ui.Cross() + " " + stage + err.Error() + "\n" +
			ui.Arrow() + " The first line of the passphrase file is used as the vault passphrase"

	case errors.Is(err, kerrors.ErrAlreadyExists) && stageErr != nil && stageErr.Stage == kerrors.StagePersistPassphrase:
		return ui.Cross() + " " + stage + err.Error() + "\n" +
			ui.Arrow() + " Use " + ui.Code.Sprint("--passphrase-policy reuse") + " to use the existing file"

	default:
		return ui.Cross() + " " + stage + err.Error()
	}
}

func newLifecycleCommand(use, short, long string, run lifecycleFunc) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, cmd.Name(), run)
		},
	}
	addLifecycleFlags(c)
	return c
}

var (
	initCmd = newLifecycleCommand("init",
		"Provision a new keypair or restore the vaulted one",
		`Provisions when the vars file does not exist yet and restores when it does.

Provisioning generates an ed25519 keypair with ssh-keygen (unless the key file
already exists), writes both keys into the vars file as ssh_public_key and
ssh_private_key, and encrypts it with ansible-vault.

Restoring decrypts the vars file, writes the key files unless they already
exist, and always encrypts the vars file again.

The vault passphrase comes from --vault-pass-file, else from an existing vault
password file, else from a hidden prompt. It is saved to the vault password
file, which is never overwritten.

Examples:
  sshvault init
  sshvault init -c deploy -f ~/.ssh/deploy
  sshvault init -p ./vault_pass.txt -d ./group_vars/all/ssh.yaml`,
		workflows.Run)

	provisionCmd = newLifecycleCommand("provision",
		"Generate a keypair and store it in a new vaulted vars file",
		`Generates an ed25519 keypair and stores it in an ansible-vault encrypted vars file.

Fails if the vars file already exists. An existing key file is vaulted as is
instead of being replaced.`,
		workflows.Provision)

	restoreCmd = newLifecycleCommand("restore",
		"Write the SSH key files from an existing vaulted vars file",
		`Decrypts the vars file, writes the private key (mode 0600) and public key,
and encrypts the vars file again, even if writing the keys failed.

Fails if the vars file does not exist. Existing key files are left untouched.`,
		workflows.Restore)
)

func init() {
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(provisionCmd)
	RootCmd.AddCommand(restoreCmd)
}
