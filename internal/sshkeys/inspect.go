package sshkeys

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
)

// ErrPassphraseProtected indicates the private key is encrypted and cannot be inspected.
var ErrPassphraseProtected = errors.New("private key is passphrase protected")

// KeyInfo summarizes a public key.
type KeyInfo struct {
	Type        string
	Comment     string
	Fingerprint string
}

// InspectPublicKey parses an authorized_keys line.
func InspectPublicKey(line []byte) (*KeyInfo, error) {
	pub, comment, _, _, err := ssh.ParseAuthorizedKey(line)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %w", kerrors.ErrParse, err)
	}
	return &KeyInfo{
		Type:        pub.Type(),
		Comment:     comment,
		Fingerprint: ssh.FingerprintSHA256(pub),
	}, nil
}

// MatchesPrivateKey reports whether the authorized_keys line belongs to the private key.
func MatchesPrivateKey(privatePEM, publicLine []byte) (bool, error) {
	signer, err := ssh.ParsePrivateKey(privatePEM)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return false, ErrPassphraseProtected
		}
		return false, fmt.Errorf("%w: private key: %w", kerrors.ErrParse, err)
	}

	pub, _, _, _, err := ssh.ParseAuthorizedKey(publicLine)
	if err != nil {
		return false, fmt.Errorf("%w: public key: %w", kerrors.ErrParse, err)
	}

	return bytes.Equal(signer.PublicKey().Marshal(), pub.Marshal()), nil
}
