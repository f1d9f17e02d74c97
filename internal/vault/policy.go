package vault

import (
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
)

// OverwritePolicy decides what Persist does when the vault password file already exists.
type OverwritePolicy int

const (
	// ReuseIfExists treats an existing password file as already initialized.
	ReuseIfExists OverwritePolicy = iota
	// FailIfExists refuses to continue when the password file exists.
	FailIfExists
)

func (p OverwritePolicy) String() string {
	switch p {
	case ReuseIfExists:
		return "reuse"
	case FailIfExists:
		return "fail"
	default:
		return "unknown"
	}
}

// ParseOverwritePolicy accepts "reuse" or "fail". An empty string means reuse.
func ParseOverwritePolicy(s string) (OverwritePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reuse", "reuse-if-exists":
		return ReuseIfExists, nil
	case "fail", "fail-if-exists":
		return FailIfExists, nil
	default:
		return ReuseIfExists, fmt.Errorf("%w: passphrase file policy %q (want reuse or fail)", kerrors.ErrInvalidPolicy, s)
	}
}

// TrustLevel decides whether a transform's exit status is checked.
type TrustLevel int

const (
	// CheckExitStatus treats a non-zero exit as failure.
	CheckExitStatus TrustLevel = iota
	// TrustSpawnOnly only fails when the tool cannot be spawned.
	TrustSpawnOnly
)

func (l TrustLevel) String() string {
	switch l {
	case CheckExitStatus:
		return "checked"
	case TrustSpawnOnly:
		return "spawn-only"
	default:
		return "unknown"
	}
}

// ParseTrustLevel accepts "checked" or "spawn-only". An empty string means checked.
func ParseTrustLevel(s string) (TrustLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "checked", "check":
		return CheckExitStatus, nil
	case "spawn-only", "spawn", "unchecked":
		return TrustSpawnOnly, nil
	default:
		return CheckExitStatus, fmt.Errorf("%w: vault exit status %q (want checked or spawn-only)", kerrors.ErrInvalidPolicy, s)
	}
}
