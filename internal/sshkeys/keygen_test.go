package sshkeys

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/storage"
	"github.com/PolarWolf314/sshvault/internal/testutil"
	"github.com/PolarWolf314/sshvault/internal/toolexec"
)

func TestGenerate_ExistingPathIsNoOp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_ssh_key")
	if err := os.WriteFile(path, []byte("nonsense\n"), 0600); err != nil {
		t.Fatal(err)
	}

	tool := &testutil.FakeKeygen{}
	gen := Generator{Tool: tool, Store: storage.NewFileStore()}

	generated, err := gen.Generate(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if generated {
		t.Error("expected no generation for an existing key")
	}
	if calls := tool.Calls(); len(calls) != 0 {
		t.Errorf("expected no ssh-keygen call, got %v", calls)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "nonsense\n" {
		t.Errorf("existing key was modified: %q", data)
	}
	if _, err := os.Stat(PublicKeyPath(path)); !os.IsNotExist(err) {
		t.Error("no .pub sibling should have been created")
	}
}

func TestGenerate_CreatesKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ssh", "test_ssh_key")
	tool := &testutil.FakeKeygen{}
	gen := Generator{Tool: tool, Binary: "ssh-keygen", Store: storage.NewFileStore()}

	generated, err := gen.Generate(context.Background(), path, "user_supplied_comment")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !generated {
		t.Error("expected keys to be generated")
	}

	calls := tool.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one ssh-keygen call, got %d", len(calls))
	}
	want := []string{"-t", "ed25519", "-C", "user_supplied_comment", "-f", path, "-q", "-N", ""}
	if calls[0].Name != "ssh-keygen" || !reflect.DeepEqual(calls[0].Args, want) {
		t.Errorf("unexpected call: %s %v", calls[0].Name, calls[0].Args)
	}

	public, err := os.ReadFile(PublicKeyPath(path))
	if err != nil {
		t.Fatalf("public key not created: %v", err)
	}
	if !strings.Contains(string(public), "user_supplied_comment") {
		t.Errorf("public key should carry the comment: %s", public)
	}
}

func TestGenerate_NonZeroExit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	gen := Generator{Tool: &testutil.FakeKeygen{ExitCode: 1}, Store: storage.NewFileStore()}

	_, err := gen.Generate(context.Background(), path, "c")
	if !errors.Is(err, kerrors.ErrToolExitStatus) {
		t.Errorf("expected ErrToolExitStatus, got: %v", err)
	}
}

func TestGenerate_MissingPublicKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	gen := Generator{Tool: &testutil.FakeKeygen{SkipPublic: true}, Store: storage.NewFileStore()}

	_, err := gen.Generate(context.Background(), path, "c")
	if !errors.Is(err, kerrors.ErrExternalTool) {
		t.Errorf("expected ErrExternalTool, got: %v", err)
	}
}

func TestGenerate_SpawnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	gen := Generator{Tool: &testutil.StubTool{Err: testutil.SpawnFailure("ssh-keygen")}, Store: storage.NewFileStore()}

	_, err := gen.Generate(context.Background(), path, "c")
	if !errors.Is(err, kerrors.ErrExternalTool) {
		t.Errorf("expected ErrExternalTool, got: %v", err)
	}
}

func TestGenerate_UnrepresentablePath(t *testing.T) {
	tool := &testutil.StubTool{Result: &toolexec.Result{}}
	gen := Generator{Tool: tool, Store: storage.NewFileStore()}

	_, err := gen.Generate(context.Background(), string([]byte{'k', 0xff, 'y'}), "c")
	if !errors.Is(err, kerrors.ErrExternalTool) {
		t.Errorf("expected ErrExternalTool, got: %v", err)
	}
	if len(tool.Calls()) != 0 {
		t.Error("ssh-keygen should not run for an unrepresentable path")
	}
}

func TestGenerate_ExistingKeyTimestampUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key")
	for _, p := range []string{path, PublicKeyPath(path)} {
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(PublicKeyPath(path), old, old); err != nil {
		t.Fatal(err)
	}

	gen := Generator{Tool: &testutil.FakeKeygen{}, Store: storage.NewFileStore()}
	if _, err := gen.Generate(context.Background(), path, "c"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	info, err := os.Stat(PublicKeyPath(path))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Errorf(".pub modification time changed: %v != %v", info.ModTime(), old)
	}
}
