package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/testutil"
	"github.com/PolarWolf314/sshvault/internal/toolexec"
)

func TestApply_PassesVerbTargetAndPasswordFile(t *testing.T) {
	tool := &testutil.StubTool{}
	transform := Transform{Tool: tool, Binary: "ansible-vault"}

	result, err := transform.Apply(context.Background(), Decrypt, "/vars/ssh_vars.yaml", "/home/u/.vault_pass.txt")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !result.Verified {
		t.Error("expected a checked zero exit to be verified")
	}

	calls := tool.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	want := []string{"decrypt", "/vars/ssh_vars.yaml", "--vault-password-file", "/home/u/.vault_pass.txt"}
	if calls[0].Name != "ansible-vault" || !reflect.DeepEqual(calls[0].Args, want) {
		t.Errorf("unexpected call: %s %v", calls[0].Name, calls[0].Args)
	}
}

func TestApply_NonZeroExitChecked(t *testing.T) {
	tool := &testutil.StubTool{Result: &toolexec.Result{ExitCode: 1, Stderr: []byte("ERROR! Decryption failed")}}
	transform := Transform{Tool: tool}

	result, err := transform.Apply(context.Background(), Decrypt, "vars.yaml", "pass")
	if !errors.Is(err, kerrors.ErrToolExitStatus) {
		t.Fatalf("expected ErrToolExitStatus, got: %v", err)
	}
	if !errors.Is(err, kerrors.ErrExternalTool) {
		t.Errorf("expected ErrExternalTool, got: %v", err)
	}
	if result == nil || result.ExitCode != 1 || result.Verified {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestApply_NonZeroExitSpawnOnly(t *testing.T) {
	tool := &testutil.StubTool{Result: &toolexec.Result{ExitCode: 1}}
	transform := Transform{Tool: tool, Trust: TrustSpawnOnly}

	result, err := transform.Apply(context.Background(), Encrypt, "vars.yaml", "pass")
	if err != nil {
		t.Fatalf("spawn-only trust should ignore exit status, got: %v", err)
	}
	if result.ExitCode != 1 || result.Verified {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestApply_SpawnFailure(t *testing.T) {
	for _, trust := range []TrustLevel{CheckExitStatus, TrustSpawnOnly} {
		t.Run(trust.String(), func(t *testing.T) {
			tool := &testutil.StubTool{Err: testutil.SpawnFailure("ansible-vault")}
			transform := Transform{Tool: tool, Trust: trust}

			_, err := transform.Apply(context.Background(), Encrypt, "vars.yaml", "pass")
			if !errors.Is(err, kerrors.ErrExternalTool) {
				t.Errorf("expected ErrExternalTool, got: %v", err)
			}
		})
	}
}

func TestApply_RoundTripWithFakeVault(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "vars.yaml")
	passFile := filepath.Join(dir, "pass")
	if err := os.WriteFile(target, []byte("ssh_public_key: a\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(passFile, []byte("secret"), 0600); err != nil {
		t.Fatal(err)
	}

	transform := Transform{Tool: &testutil.FakeVault{}}
	ctx := context.Background()

	if _, err := transform.Apply(ctx, Encrypt, target, passFile); err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	data, _ := os.ReadFile(target)
	if !IsVaulted(data) {
		t.Fatalf("expected vaulted file, got %q", data)
	}

	if _, err := transform.Apply(ctx, Decrypt, target, passFile); err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	data, _ = os.ReadFile(target)
	if string(data) != "ssh_public_key: a\n" {
		t.Errorf("round trip changed the file: %q", data)
	}
}

func TestIsVaulted(t *testing.T) {
	if !IsVaulted([]byte("$ANSIBLE_VAULT;1.1;AES256\n6162\n")) {
		t.Error("expected vault header to be recognized")
	}
	if IsVaulted([]byte("ssh_public_key: x\n")) {
		t.Error("plaintext YAML should not be recognized as vaulted")
	}
}
