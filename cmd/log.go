package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sshvault/internal/audit"
	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/ui"
	"github.com/PolarWolf314/sshvault/internal/workflows"
)

var (
	logLimit     int
	logReverse   bool
	logOperation string
	logSince     string
	logUntil     string
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation (provision, restore; comma-separated)")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")

	RootCmd.AddCommand(logCmd)
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logOperation = ""
	logSince = ""
	logUntil = ""
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the audit log of provision and restore runs.

Each run records when it happened, what it did, how it ended and, on failure,
the stage that failed.

Examples:
  sshvault log                      # View full log
  sshvault log -n 10                # Last 10 entries
  sshvault log --reverse            # Most recent first
  sshvault log --operation restore  # Filter by operation
  sshvault log --since 2024-01-01   # Filter by date
  sshvault log --json               # JSON output`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")
	out := cmd.OutOrStdout()

	if Settings.AuditLogPath == "" {
		fmt.Fprintln(out, ui.Info.Sprint("ℹ")+" No data directory could be resolved, so no audit log is kept.")
		return nil
	}
	Logger.Debugf("Reading audit log from %s", Settings.AuditLogPath)

	result, err := workflows.Log(cmd.Context(), workflows.LogOptions{
		Path:       Settings.AuditLogPath,
		Limit:      logLimit,
		Reverse:    logReverse,
		Operations: logOperation,
		Since:      logSince,
		Until:      logUntil,
	})
	if err != nil {
		if errors.Is(err, kerrors.ErrInvalidDateFormat) {
			fmt.Fprintln(out, ui.Cross()+" "+err.Error())
			return reported(err)
		}
		return err
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			fmt.Fprintln(out, "No audit log entries found.")
		} else {
			fmt.Fprintln(out, "No audit log entries found matching the filters.")
		}
		return nil
	}

	if logJSON {
		return outputLogJSON(out, result.Entries)
	}

	outputLogDefault(out, result.Entries)
	return nil
}

func outputLogJSON(out io.Writer, entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func outputLogDefault(out io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		datetime := workflows.FormatDateTime(e.Timestamp)
		details := workflows.FormatDetails(e)
		fmt.Fprintf(out, "%-19s  %-9s  %-28s  %s\n", datetime, e.Operation, e.Outcome, details)
	}
}
