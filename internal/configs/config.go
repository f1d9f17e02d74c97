package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/utils"
	"github.com/PolarWolf314/sshvault/internal/vault"
)

// FileConfig is the on-disk layout of config.toml.
type FileConfig struct {
	Paths  PathsConfig  `toml:"paths"`
	Key    KeyConfig    `toml:"key"`
	Tools  ToolsConfig  `toml:"tools"`
	Policy PolicyConfig `toml:"policy"`
}

type PathsConfig struct {
	Destination       string `toml:"destination,omitempty"`
	VaultPasswordFile string `toml:"vault_password_file,omitempty"`
	KeyFile           string `toml:"key_file,omitempty"`
}

type KeyConfig struct {
	Comment string `toml:"comment,omitempty"`
}

type ToolsConfig struct {
	Vault  string `toml:"vault,omitempty"`
	Keygen string `toml:"keygen,omitempty"`
}

type PolicyConfig struct {
	// PassphraseFile is "reuse" or "fail".
	PassphraseFile string `toml:"passphrase_file,omitempty"`
	// VaultExitStatus is "checked" or "spawn-only".
	VaultExitStatus string `toml:"vault_exit_status,omitempty"`
}

// EnvConfig holds SSHVAULT_* overrides.
type EnvConfig struct {
	Config           string `envconfig:"CONFIG"`
	Destination      string `envconfig:"DESTINATION"`
	VaultPassFile    string `envconfig:"VAULT_PASS_FILE"`
	KeyFile          string `envconfig:"KEY_FILE"`
	Comment          string `envconfig:"COMMENT"`
	VaultBinary      string `envconfig:"VAULT_BIN"`
	KeygenBinary     string `envconfig:"KEYGEN_BIN"`
	PassphrasePolicy string `envconfig:"PASSPHRASE_POLICY"`
	VaultExitStatus  string `envconfig:"VAULT_EXIT_STATUS"`
	Verbose          bool   `envconfig:"VERBOSE"`
	Debug            bool   `envconfig:"DEBUG"`
}

// EnvPrefix is prepended to every environment variable name, e.g. SSHVAULT_DESTINATION.
const EnvPrefix = "sshvault"

// Load resolves settings: defaults from resolver, then config.toml, then
// SSHVAULT_* environment variables. Flags are applied by the caller.
func Load(resolver PathResolver) (*Settings, error) {
	settings := Defaults(resolver)

	var env EnvConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if env.Config != "" {
		settings.ConfigFile = utils.ExpandHome(env.Config, settings.HomeDir)
	}

	if settings.ConfigFile != "" {
		fileConfig, err := LoadFileConfig(settings.ConfigFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			settings.ApplyFile(fileConfig)
			settings.ConfigLoaded = true
		}
	}

	settings.ApplyEnv(env)

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// LoadFileConfig reads and strictly decodes a config file. Unknown keys are an error.
func LoadFileConfig(path string) (*FileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, kerrors.IO(err)
	}

	config := &FileConfig{}
	meta, err := LoadTOML(path, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", kerrors.ErrParse, path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", kerrors.ErrParse, path, strings.Join(keys, ", "))
	}

	return config, nil
}

// ApplyFile overlays non-empty config file values.
func (s *Settings) ApplyFile(c *FileConfig) {
	s.setPath(&s.DestinationPath, c.Paths.Destination)
	s.setPath(&s.VaultPassFile, c.Paths.VaultPasswordFile)
	s.setPath(&s.KeyFile, c.Paths.KeyFile)
	setString(&s.Comment, c.Key.Comment)
	setString(&s.VaultBinary, c.Tools.Vault)
	setString(&s.KeygenBinary, c.Tools.Keygen)
	setString(&s.PassphrasePolicy, c.Policy.PassphraseFile)
	setString(&s.VaultExitStatus, c.Policy.VaultExitStatus)
}

// ApplyEnv overlays non-empty environment values.
func (s *Settings) ApplyEnv(env EnvConfig) {
	s.setPath(&s.DestinationPath, env.Destination)
	s.setPath(&s.VaultPassFile, env.VaultPassFile)
	s.setPath(&s.KeyFile, env.KeyFile)
	setString(&s.Comment, env.Comment)
	setString(&s.VaultBinary, env.VaultBinary)
	setString(&s.KeygenBinary, env.KeygenBinary)
	setString(&s.PassphrasePolicy, env.PassphrasePolicy)
	setString(&s.VaultExitStatus, env.VaultExitStatus)
	s.Verbose = s.Verbose || env.Verbose
	s.Debug = s.Debug || env.Debug
}

// ExpandPath expands a leading ~ against the resolved home directory.
func (s *Settings) ExpandPath(path string) string {
	return utils.ExpandHome(path, s.HomeDir)
}

// Validate checks the policy names and that the key comment is usable.
func (s *Settings) Validate() error {
	if _, err := vault.ParseOverwritePolicy(s.PassphrasePolicy); err != nil {
		return err
	}
	if _, err := vault.ParseTrustLevel(s.VaultExitStatus); err != nil {
		return err
	}
	if !utils.IsValidKeyComment(s.Comment) {
		return fmt.Errorf("key comment must be a single line: %q", s.Comment)
	}
	return nil
}

// FileConfig renders the settings as a config file, for `sshvault config init`.
func (s *Settings) FileConfig() *FileConfig {
	return &FileConfig{
		Paths: PathsConfig{
			Destination:       s.DestinationPath,
			VaultPasswordFile: s.VaultPassFile,
			KeyFile:           s.KeyFile,
		},
		Key:   KeyConfig{Comment: s.Comment},
		Tools: ToolsConfig{Vault: s.VaultBinary, Keygen: s.KeygenBinary},
		Policy: PolicyConfig{
			PassphraseFile:  s.PassphrasePolicy,
			VaultExitStatus: s.VaultExitStatus,
		},
	}
}

func (s *Settings) setPath(dst *string, value string) {
	if value != "" {
		*dst = s.ExpandPath(value)
	}
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
