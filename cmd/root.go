package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/PolarWolf314/sshvault/internal/configs"
	logger "github.com/PolarWolf314/sshvault/internal/logging"
	"github.com/PolarWolf314/sshvault/internal/toolexec"
	"github.com/PolarWolf314/sshvault/internal/utils"
	"github.com/PolarWolf314/sshvault/internal/vault"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// Settings is resolved before every subcommand runs.
	Settings *configs.Settings

	// These are swapped out by tests.
	pathResolver configs.PathResolver = configs.OSPathResolver{}
	toolRunner   toolexec.Tool        = toolexec.NewExec()
	promptFunc   vault.PromptFunc     = utils.ReadPassphrase

	RootCmd = &cobra.Command{
		Use:   "sshvault",
		Short: "Provision and restore an ansible SSH keypair kept in an ansible-vault file",
		Long: `sshvault keeps the SSH keypair your automation logs in with inside an
ansible-vault encrypted vars file, and puts it back on disk when needed.

On first run it generates an ed25519 keypair with ssh-keygen, writes it to a
YAML vars file and encrypts that file with ansible-vault. On later runs it
decrypts the vars file, writes the key files (private key mode 0600) and
encrypts the vars file again. Existing keys, vars files and vault password
files are never overwritten.

Usage:
  sshvault init          Provision or restore, whichever applies
  sshvault provision     Generate and vault a new keypair
  sshvault restore       Restore the keypair from the vault
  sshvault doctor        Check the local setup
  sshvault log           Show past runs`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSettings,
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

// loadSettings resolves configuration and builds the shared logger.
func loadSettings(cmd *cobra.Command, args []string) error {
	Logger = logger.Logger{
		Verbose: verbose,
		Debug:   debug,
		Out:     cmd.OutOrStdout(),
		Err:     cmd.ErrOrStderr(),
	}

	settings, err := configs.Load(pathResolver)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	settings.Verbose = settings.Verbose || verbose
	settings.Debug = settings.Debug || debug
	Settings = settings

	Logger.Verbose = settings.Verbose
	Logger.Debug = settings.Debug
	Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.Name(), settings.Verbose, settings.Debug)
	if settings.ConfigLoaded {
		Logger.Infof("Loaded configuration from %s", settings.ConfigFile)
	}
	return nil
}

// reportedError marks an error whose message the command already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// Execute runs the command tree. Errors not already shown are printed to stderr.
func Execute() error {
	err := RootCmd.Execute()
	var shown *reportedError
	if err != nil && !errors.As(err, &shown) {
		fmt.Fprintln(RootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

// Helper functions for testing

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	Settings = nil
	pathResolver = configs.OSPathResolver{}
	toolRunner = toolexec.NewExec()
	promptFunc = utils.ReadPassphrase
	resetLifecycleState()
	resetDoctorCommandState()
	resetLogCommandState()
	resetConfigShowState()
	versionBanner = false
	resetCobraFlagState(RootCmd)
}

// resetCobraFlagState clears Changed on every flag to prevent test pollution.
func resetCobraFlagState(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) { flag.Changed = false }
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetCobraFlagState(child)
	}
}

// SetPathResolver redirects every default path, for testing.
func SetPathResolver(r configs.PathResolver) {
	pathResolver = r
}

// SetToolRunner replaces ssh-keygen and ansible-vault, for testing.
func SetToolRunner(t toolexec.Tool) {
	toolRunner = t
}

// SetPrompt replaces the terminal passphrase prompt, for testing.
func SetPrompt(p vault.PromptFunc) {
	promptFunc = p
}
