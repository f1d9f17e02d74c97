// Package audit records a trail of sshvault provisioning and restore runs.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) under
// the user's data directory:
//
//	~/.local/share/sshvault/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Run ID (a fresh UUID per invocation)
//   - Operation and outcome
//   - The failed stage and error text, when the run failed
//   - Destination, key file and key fingerprint
//
// Secrets never appear in the log; only paths and fingerprints do.
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the run's result is unchanged.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display.
// Malformed entries are silently skipped to handle partial writes.
package audit
