package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sshvault/internal/configs"
	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/storage"
	"github.com/PolarWolf314/sshvault/internal/ui"
)

// ConfigFilePerm keeps config.toml private; it names key and passphrase paths.
const ConfigFilePerm = 0600

var configShowJSON bool

// ConfigCmd is the top-level config command.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sshvault configuration",
	Long: `Shows and initializes the sshvault configuration file.

Settings are resolved in this order, later ones winning:
  1. Built-in defaults derived from your home directory
  2. config.toml in your config directory (or $SSHVAULT_CONFIG)
  3. SSHVAULT_* environment variables
  4. Command-line flags

Examples:
  # Show the resolved settings
  sshvault config show

  # Write the current settings to a new config file
  sshvault config init`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")
		out := cmd.OutOrStdout()

		if configShowJSON {
			data, err := json.MarshalIndent(Settings, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("Failed to marshal settings: %v", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		source := "built-in defaults"
		if Settings.ConfigLoaded {
			source = Settings.ConfigFile
		}

		fmt.Fprintln(out, color.CyanString("Configuration")+" "+ui.Muted.Sprint(source))
		printSetting(cmd, "Vars file", Settings.DestinationPath)
		printSetting(cmd, "Vault password file", Settings.VaultPassFile)
		printSetting(cmd, "Key file", Settings.KeyFile)
		printSetting(cmd, "Key comment", Settings.Comment)
		printSetting(cmd, "ansible-vault", Settings.VaultBinary)
		printSetting(cmd, "ssh-keygen", Settings.KeygenBinary)
		printSetting(cmd, "Passphrase policy", Settings.PassphrasePolicy)
		printSetting(cmd, "Vault exit status", Settings.VaultExitStatus)
		printSetting(cmd, "Audit log", Settings.AuditLogPath)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the resolved configuration to a new config file",
	Long: `Writes the currently resolved settings to config.toml so they can be edited.

An existing config file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")
		out := cmd.OutOrStdout()

		if Settings.ConfigFile == "" {
			return fmt.Errorf("no config directory could be resolved; set SSHVAULT_CONFIG")
		}

		err := configs.CreateTOML(storage.NewFileStore(), Settings.ConfigFile, Settings.FileConfig(), ConfigFilePerm)
		if errors.Is(err, kerrors.ErrAlreadyExists) {
			fmt.Fprintln(out, ui.Alert()+" Config file "+ui.Path.Sprint(Settings.ConfigFile)+" already exists, left untouched")
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to write config file: %v", err)
		}

		fmt.Fprintln(out, ui.Tick()+" Wrote "+ui.Path.Sprint(Settings.ConfigFile))
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
	RootCmd.AddCommand(ConfigCmd)
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

func printSetting(cmd *cobra.Command, name, value string) {
	if value == "" {
		value = ui.Muted.Sprint("unset")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %s\n", name+":", value)
}
