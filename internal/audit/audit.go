package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/PolarWolf314/sshvault/internal/utils"
)

// TimestampFormat is RFC3339 in UTC with microseconds.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`
	RunID     string `json:"run_id"`
	Operation string `json:"op"`      // provision or restore.
	Outcome   string `json:"outcome"` // Provisioned, Restored, ...
	User      string `json:"user,omitempty"`
	Host      string `json:"host,omitempty"`

	Stage       string `json:"stage,omitempty"` // Failed stage, if any.
	Destination string `json:"destination,omitempty"`
	KeyFile     string `json:"key_file,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewRunID returns a fresh identifier for one orchestrated run.
func NewRunID() string {
	return uuid.NewString()
}

// Log appends an entry to the audit log at path.
// Logging is best-effort: an empty path or any failure is silently ignored.
func Log(path string, entry Entry) {
	if path == "" {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	if entry.RunID == "" {
		entry.RunID = NewRunID()
	}
	if entry.User == "" || entry.Host == "" {
		id := utils.CurrentIdentity()
		if entry.User == "" {
			entry.User = id.User
		}
		if entry.Host == "" {
			entry.Host = id.Host
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}

	// The log names key paths, so keep it private to the user.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// Tail returns the last n entries, or all of them when n <= 0.
func Tail(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}
