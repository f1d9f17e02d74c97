package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLog_CreatesFileAndParents(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "data", "sshvault", "audit.jsonl")

	Log(logPath, Entry{Operation: "provision", Outcome: "Provisioned"})

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("Audit log file was not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %o", info.Mode().Perm())
	}
}

func TestLog_AppendsEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	Log(logPath, Entry{Operation: "provision", Outcome: "Provisioned"})
	Log(logPath, Entry{Operation: "restore", Outcome: "Restored"})
	Log(logPath, Entry{Operation: "restore", Outcome: "Failed", Stage: "decrypt"})

	entries, err := ReadEntries(logPath)
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[2].Stage != "decrypt" {
		t.Errorf("Expected stage decrypt, got %q", entries[2].Stage)
	}
}

func TestLog_FillsTimestampAndRunID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	Log(logPath, Entry{Operation: "provision"})
	Log(logPath, Entry{Operation: "provision", RunID: "fixed"})

	entries, err := ReadEntries(logPath)
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}

	if _, err := time.Parse(TimestampFormat, entries[0].Timestamp); err != nil {
		t.Errorf("Timestamp %q does not match format: %v", entries[0].Timestamp, err)
	}
	if len(entries[0].RunID) != 36 {
		t.Errorf("Expected a UUID run id, got %q", entries[0].RunID)
	}
	if entries[1].RunID != "fixed" {
		t.Errorf("Explicit run id was replaced: %q", entries[1].RunID)
	}
}

func TestLog_OmitsEmptyFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	Log(logPath, Entry{Operation: "restore", Outcome: "Restored"})

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &raw); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	for _, field := range []string{"stage", "error", "destination", "key_file", "fingerprint"} {
		if _, ok := raw[field]; ok {
			t.Errorf("Expected %s to be omitted", field)
		}
	}
}

func TestLog_EmptyPathIsIgnored(t *testing.T) {
	Log("", Entry{Operation: "provision"})
}

func TestLog_UnwritablePathIsIgnored(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	Log(filepath.Join(blocker, "audit.jsonl"), Entry{Operation: "provision"})
}

func TestReadEntries_MissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"ts":"2024-01-15T10:30:00.000000Z","run_id":"a","op":"provision","outcome":"Provisioned"}
not json
{"ts":"2024-01-15T10:31:00.000000Z","run_id":"b","op":"restore","outcome":"Restored"}
`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].Operation != "restore" {
		t.Errorf("Expected restore, got %q", entries[1].Operation)
	}
}

func TestTail(t *testing.T) {
	entries := []Entry{{RunID: "1"}, {RunID: "2"}, {RunID: "3"}}

	tests := []struct {
		n    int
		want []string
	}{
		{0, []string{"1", "2", "3"}},
		{2, []string{"2", "3"}},
		{5, []string{"1", "2", "3"}},
	}

	for _, tc := range tests {
		got := Tail(entries, tc.n)
		if len(got) != len(tc.want) {
			t.Errorf("Tail(%d): expected %d entries, got %d", tc.n, len(tc.want), len(got))
			continue
		}
		for i, e := range got {
			if e.RunID != tc.want[i] {
				t.Errorf("Tail(%d)[%d] = %q, want %q", tc.n, i, e.RunID, tc.want[i])
			}
		}
	}
}

func TestLog_KeepsCallerIdentity(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	Log(logPath, Entry{Operation: "restore", User: "deployer", Host: "builder-01"})

	entries, err := ReadEntries(logPath)
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if entries[0].User != "deployer" || entries[0].Host != "builder-01" {
		t.Errorf("Expected caller identity to be kept, got %q@%q", entries[0].User, entries[0].Host)
	}
}
