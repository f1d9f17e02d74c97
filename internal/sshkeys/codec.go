package sshkeys

import (
	"fmt"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
)

// KeyPair is an OpenSSH keypair held as text.
type KeyPair struct {
	PublicKey  string
	PrivateKey string
}

const (
	PublicKeyField  = "ssh_public_key"
	PrivateKeyField = "ssh_private_key"
)

// Pointers let Decode tell a missing field from an empty one.
type varsDocument struct {
	PublicKey  *string `yaml:"ssh_public_key"`
	PrivateKey *string `yaml:"ssh_private_key"`
}

// Encode renders kp as a YAML vars document.
func Encode(kp KeyPair) ([]byte, error) {
	if !utf8.ValidString(kp.PublicKey) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", kerrors.ErrSerialization, PublicKeyField)
	}
	if !utf8.ValidString(kp.PrivateKey) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", kerrors.ErrSerialization, PrivateKeyField)
	}

	out, err := yaml.Marshal(varsDocument{PublicKey: &kp.PublicKey, PrivateKey: &kp.PrivateKey})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrSerialization, err)
	}
	return out, nil
}

// Decode parses a YAML vars document. Both fields must be present.
func Decode(data []byte) (KeyPair, error) {
	var doc varsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", kerrors.ErrParse, err)
	}
	if doc.PublicKey == nil {
		return KeyPair{}, fmt.Errorf("%w: missing %s", kerrors.ErrParse, PublicKeyField)
	}
	if doc.PrivateKey == nil {
		return KeyPair{}, fmt.Errorf("%w: missing %s", kerrors.ErrParse, PrivateKeyField)
	}
	return KeyPair{PublicKey: *doc.PublicKey, PrivateKey: *doc.PrivateKey}, nil
}
