package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/PolarWolf314/sshvault/internal/sshkeys"
	"github.com/PolarWolf314/sshvault/internal/storage"
	"github.com/PolarWolf314/sshvault/internal/toolexec"
	"github.com/PolarWolf314/sshvault/internal/utils"
	"github.com/PolarWolf314/sshvault/internal/vault"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// ExitCode is 2 when any check errored, 1 when any warned, 0 otherwise.
func (r *DoctorResult) ExitCode() int {
	switch {
	case r.Summary.Errors > 0:
		return 2
	case r.Summary.Warnings > 0:
		return 1
	default:
		return 0
	}
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	DestinationPath string
	VaultPassFile   string
	KeyFile         string
	VaultBinary     string
	KeygenBinary    string

	// Store defaults to the local filesystem.
	Store storage.Store

	// LookPath defaults to toolexec.LookPath.
	LookPath func(name string) (string, error)
}

// Doctor runs health checks on the local key setup.
//
// The doctor workflow checks:
//   - ssh-keygen and ansible-vault are on PATH
//   - The vars file exists and is vaulted, not plaintext
//   - The vault password file exists and is owner-only
//   - The private key exists with mode 0600
//   - The public key parses and matches the private key
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	if opts.Store == nil {
		opts.Store = storage.NewFileStore()
	}
	if opts.LookPath == nil {
		opts.LookPath = toolexec.LookPath
	}

	checks := []func(DoctorOptions) CheckResult{
		checkKeygenTool,
		checkVaultTool,
		checkDestination,
		checkPassphraseFile,
		checkPrivateKey,
		checkPublicKey,
	}

	var results []CheckResult
	for _, check := range checks {
		results = append(results, check(opts))
	}

	summary := calculateDoctorSummary(results)

	// Collect suggestions (deduplicated).
	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     summary,
		Suggestions: suggestions,
	}, nil
}

func checkKeygenTool(opts DoctorOptions) CheckResult {
	return checkTool(opts, orDefault(opts.KeygenBinary, "ssh-keygen"), "Install OpenSSH so ssh-keygen is on your PATH")
}

func checkVaultTool(opts DoctorOptions) CheckResult {
	return checkTool(opts, orDefault(opts.VaultBinary, "ansible-vault"), "Install Ansible so ansible-vault is on your PATH")
}

func checkTool(opts DoctorOptions, binary, suggestion string) CheckResult {
	name := fmt.Sprintf("Tool %s", binary)
	path, err := opts.LookPath(binary)
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%s not found", binary),
			Suggestion: suggestion,
		}
	}
	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkDestination makes sure the vars file is not sitting in plaintext.
func checkDestination(opts DoctorOptions) CheckResult {
	const name = "Vaulted vars file"

	data, err := opts.Store.ReadFile(opts.DestinationPath)
	if errors.Is(err, fs.ErrNotExist) {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%s does not exist yet", opts.DestinationPath),
			Suggestion: "Run 'sshvault init' to provision a keypair",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to read %s: %v", opts.DestinationPath, err),
			Suggestion: "Check that the vars file is readable",
		}
	}

	if !vault.IsVaulted(data) {
		return CheckResult{
			Name:    name,
			Status:  CheckError,
			Message: fmt.Sprintf("%s is not encrypted", opts.DestinationPath),
			Suggestion: fmt.Sprintf("Run 'ansible-vault encrypt %s --vault-password-file %s'",
				opts.DestinationPath, opts.VaultPassFile),
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("%s is encrypted", opts.DestinationPath),
	}
}

func checkPassphraseFile(opts DoctorOptions) CheckResult {
	const name = "Vault password file"

	info, err := opts.Store.Stat(opts.VaultPassFile)
	if errors.Is(err, fs.ErrNotExist) {
		return CheckResult{
			Name:    name,
			Status:  CheckWarning,
			Message: fmt.Sprintf("%s not found, the passphrase will be prompted for", opts.VaultPassFile),
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to stat %s: %v", opts.VaultPassFile, err),
			Suggestion: "Check that the vault password file is accessible",
		}
	}

	if info.Size() == 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%s is empty", opts.VaultPassFile),
			Suggestion: fmt.Sprintf("Remove %s and run 'sshvault init' to enter the passphrase again", opts.VaultPassFile),
		}
	}

	if runtime.GOOS != "windows" && !utils.IsOwnerOnly(info.Mode()) {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Vault password file is readable by others (%04o)", info.Mode().Perm()),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s' to fix permissions", opts.VaultPassFile),
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: "Vault password file is present and private",
	}
}

func checkPrivateKey(opts DoctorOptions) CheckResult {
	const name = "Private key"

	info, err := opts.Store.Stat(opts.KeyFile)
	if errors.Is(err, fs.ErrNotExist) {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%s not found", opts.KeyFile),
			Suggestion: "Run 'sshvault init' to restore the keys from the vars file",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to stat private key: %v", err),
			Suggestion: "Check that the private key file is accessible",
		}
	}

	// Check permissions (should be 0600).
	mode := info.Mode().Perm()
	if runtime.GOOS != "windows" && mode != sshkeys.PrivateKeyPerm {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Private key has insecure permissions (%04o)", mode),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s' to fix permissions", opts.KeyFile),
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: "Private key has correct permissions (0600)",
	}
}

func checkPublicKey(opts DoctorOptions) CheckResult {
	const name = "Public key"
	publicPath := sshkeys.PublicKeyPath(opts.KeyFile)

	public, err := opts.Store.ReadFile(publicPath)
	if errors.Is(err, fs.ErrNotExist) {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%s not found", publicPath),
			Suggestion: "Run 'sshvault init' to restore the keys from the vars file",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to read public key: %v", err),
			Suggestion: "Check that the public key file is readable",
		}
	}

	info, err := sshkeys.InspectPublicKey(public)
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%s is not a valid public key", publicPath),
			Suggestion: fmt.Sprintf("Remove %s and run 'sshvault init' again", publicPath),
		}
	}

	private, err := opts.Store.ReadFile(opts.KeyFile)
	if err != nil {
		// Reported by checkPrivateKey.
		return CheckResult{
			Name:    name,
			Status:  CheckPass,
			Message: fmt.Sprintf("%s %s", info.Type, info.Fingerprint),
		}
	}

	matches, err := sshkeys.MatchesPrivateKey(private, public)
	switch {
	case errors.Is(err, sshkeys.ErrPassphraseProtected):
		return CheckResult{
			Name:    name,
			Status:  CheckWarning,
			Message: fmt.Sprintf("%s %s (private key is passphrase protected, pairing not checked)", info.Type, info.Fingerprint),
		}
	case err != nil:
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to parse private key: %v", err),
			Suggestion: fmt.Sprintf("Remove %s and run 'sshvault init' to restore it", opts.KeyFile),
		}
	case !matches:
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%s does not belong to %s", publicPath, opts.KeyFile),
			Suggestion: fmt.Sprintf("Remove %s and run 'sshvault init' to restore it", publicPath),
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("%s %s matches the private key", info.Type, info.Fingerprint),
	}
}

// calculateDoctorSummary calculates the counts of checks by status.
func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
