package cmd

import (
	"github.com/spf13/pflag"

	"github.com/PolarWolf314/sshvault/internal/vault"
)

// OptionalValue is a pflag.Value that remembers whether it was set, so
// an unset flag falls through to configuration.
type OptionalValue interface {
	pflag.Value
	Specified() bool
}

// PolicyValue is an OptionalValue for --passphrase-policy.
type PolicyValue struct {
	specified bool
	policy    vault.OverwritePolicy
}

func (v *PolicyValue) String() string {
	return v.policy.String()
}

func (v *PolicyValue) Set(s string) error {
	policy, err := vault.ParseOverwritePolicy(s)
	if err != nil {
		return err
	}
	v.policy = policy
	v.specified = true
	return nil
}

func (v *PolicyValue) Type() string {
	return "reuse|fail"
}

func (v *PolicyValue) Specified() bool {
	return v.specified
}

// TrustValue is an OptionalValue for --vault-exit-status.
type TrustValue struct {
	specified bool
	trust     vault.TrustLevel
}

func (v *TrustValue) String() string {
	return v.trust.String()
}

func (v *TrustValue) Set(s string) error {
	trust, err := vault.ParseTrustLevel(s)
	if err != nil {
		return err
	}
	v.trust = trust
	v.specified = true
	return nil
}

func (v *TrustValue) Type() string {
	return "checked|spawn-only"
}

func (v *TrustValue) Specified() bool {
	return v.specified
}
