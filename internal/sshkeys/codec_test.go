package sshkeys

import (
	"errors"
	"strings"
	"testing"
	"testing/quick"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/testutil"
)

func TestCodec_RoundTrip(t *testing.T) {
	priv, pub, err := testutil.GenerateKeyPair("ansibleuser")
	require.NoError(t, err)

	tests := []struct {
		name string
		kp   KeyPair
	}{
		{"RealKeys", KeyPair{PublicKey: pub, PrivateKey: priv}},
		{"Empty", KeyPair{}},
		{"EmptyPublic", KeyPair{PrivateKey: "private stuff"}},
		{"SingleLine", KeyPair{PublicKey: "public stuff", PrivateKey: "private_tuff"}},
		{"MultiLineNoTrailingNewline", KeyPair{PublicKey: "a\nb", PrivateKey: "line1\nline2\nline3"}},
		{"LeadingSpaces", KeyPair{PublicKey: "  indented", PrivateKey: "text"}},
		{"YAMLLookalikes", KeyPair{PublicKey: "key: value", PrivateKey: "- item\n# not a comment\n"}},
		{"Quotes", KeyPair{PublicKey: `"quoted"`, PrivateKey: "it's"}},
		{"Scalars", KeyPair{PublicKey: "true", PrivateKey: "null"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := Encode(tc.kp)
			require.NoError(t, err)

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tc.kp, decoded)
		})
	}
}

func TestCodec_RoundTripArbitraryText(t *testing.T) {
	roundTrips := func(public, private string) bool {
		if !utf8.ValidString(public) || !utf8.ValidString(private) {
			return true
		}
		kp := KeyPair{PublicKey: public, PrivateKey: private}
		encoded, err := Encode(kp)
		if err != nil {
			t.Logf("encode %q: %v", kp, err)
			return false
		}
		decoded, err := Decode(encoded)
		if err != nil {
			t.Logf("decode %q: %v", encoded, err)
			return false
		}
		return decoded == kp
	}

	if err := quick.Check(roundTrips, &quick.Config{MaxCount: 2000}); err != nil {
		t.Error(err)
	}

	edgeCases := []string{"\ufeffkey", "tab\there", "\x01\x02\x7f", "crlf\r\nline", "trailing\n\n", "~", "*alias", "&anchor"}
	for _, pub := range edgeCases {
		for _, priv := range edgeCases {
			if !roundTrips(pub, priv) {
				t.Errorf("round trip failed for %q / %q", pub, priv)
			}
		}
	}
}

func TestEncode_FieldNames(t *testing.T) {
	encoded, err := Encode(KeyPair{PublicKey: "pub", PrivateKey: "priv"})
	require.NoError(t, err)

	text := string(encoded)
	assert.True(t, strings.HasPrefix(text, PublicKeyField+":"), "public key should come first: %s", text)
	assert.Contains(t, text, PrivateKeyField+": priv")
}

func TestEncode_RejectsInvalidUTF8(t *testing.T) {
	_, err := Encode(KeyPair{PublicKey: "ok", PrivateKey: string([]byte{0xff, 0xfe})})
	assert.True(t, errors.Is(err, kerrors.ErrSerialization), "got: %v", err)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"BrokenYAML", "ssh_public_key: [unclosed\n"},
		{"WrongShape", "- just\n- a list\n"},
		{"VaultedText", "$ANSIBLE_VAULT;1.1;AES256\n6162636465\n"},
		{"MissingPrivate", "ssh_public_key: abc\n"},
		{"MissingPublic", "ssh_private_key: abc\n"},
		{"Empty", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, kerrors.ErrParse), "got: %v", err)
		})
	}
}
