package configs

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	AppName = "sshvault"

	// DefaultComment doubles as the default key file name. Lowercase only,
	// in case capitals or underscores are not allowed somewhere downstream.
	DefaultComment = "ansibleuser"

	VaultPassFilename   = ".vault_pass.txt"
	VarsFilename        = "ssh_vars.yaml"
	DefaultVaultBinary  = "ansible-vault"
	DefaultKeygenBinary = "ssh-keygen"
	ConfigFilename      = "config.toml"
	AuditFilename       = "audit.jsonl"
)

// PathResolver supplies the per-user directories every default path is derived from.
type PathResolver interface {
	HomeDir() (string, error)
	ConfigDir() (string, error)
	DataDir() (string, error)
}

// OSPathResolver resolves directories from the operating system and XDG variables.
type OSPathResolver struct{}

func (OSPathResolver) HomeDir() (string, error) {
	return os.UserHomeDir()
}

func (OSPathResolver) ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

func (r OSPathResolver) DataDir() (string, error) {
	if dataDir := os.Getenv("XDG_DATA_HOME"); dataDir != "" {
		return filepath.Join(dataDir, AppName), nil
	}
	home, err := r.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// StaticPathResolver returns fixed directories. An empty field resolves as an error,
// which lets tests exercise the no-home-directory fallbacks.
type StaticPathResolver struct {
	Home   string
	Config string
	Data   string
}

var errUnresolved = errors.New("directory not resolvable")

func (r StaticPathResolver) HomeDir() (string, error) {
	if r.Home == "" {
		return "", errUnresolved
	}
	return r.Home, nil
}

func (r StaticPathResolver) ConfigDir() (string, error) {
	if r.Config == "" {
		return "", errUnresolved
	}
	return r.Config, nil
}

func (r StaticPathResolver) DataDir() (string, error) {
	if r.Data == "" {
		return "", errUnresolved
	}
	return r.Data, nil
}

// NewTestResolver roots every directory under base.
func NewTestResolver(base string) StaticPathResolver {
	return StaticPathResolver{
		Home:   filepath.Join(base, "home"),
		Config: filepath.Join(base, "config", AppName),
		Data:   filepath.Join(base, "data", AppName),
	}
}

// Settings is the fully resolved configuration for one invocation.
type Settings struct {
	HomeDir   string
	ConfigDir string
	DataDir   string

	// ConfigFile is where config.toml was looked for. Empty when no config directory resolved.
	ConfigFile string
	// ConfigLoaded is true when ConfigFile existed and was applied.
	ConfigLoaded bool
	// AuditLogPath is empty when no data directory resolved, which disables the audit trail.
	AuditLogPath string

	DestinationPath string
	VaultPassFile   string
	KeyFile         string
	Comment         string

	VaultBinary  string
	KeygenBinary string

	PassphrasePolicy string
	VaultExitStatus  string

	Verbose bool
	Debug   bool
}

// Defaults derives the built-in settings from resolver. When no home
// directory is resolvable, file names fall back to the working directory.
func Defaults(resolver PathResolver) *Settings {
	s := &Settings{
		Comment:          DefaultComment,
		VaultBinary:      DefaultVaultBinary,
		KeygenBinary:     DefaultKeygenBinary,
		PassphrasePolicy: "reuse",
		VaultExitStatus:  "checked",
	}

	if home, err := resolver.HomeDir(); err == nil && home != "" {
		s.HomeDir = home
		s.DestinationPath = filepath.Join(home, ".ansible", "vars", VarsFilename)
		s.VaultPassFile = filepath.Join(home, VaultPassFilename)
		s.KeyFile = filepath.Join(home, ".ssh", DefaultComment)
	} else {
		s.DestinationPath = VarsFilename
		s.VaultPassFile = VaultPassFilename
		s.KeyFile = DefaultComment
	}

	if dir, err := resolver.ConfigDir(); err == nil && dir != "" {
		s.ConfigDir = dir
		s.ConfigFile = filepath.Join(dir, ConfigFilename)
	}

	if dir, err := resolver.DataDir(); err == nil && dir != "" {
		s.DataDir = dir
		s.AuditLogPath = filepath.Join(dir, AuditFilename)
	}

	return s
}
