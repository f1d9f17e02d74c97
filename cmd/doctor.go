package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sshvault/internal/toolexec"
	"github.com/PolarWolf314/sshvault/internal/ui"
	"github.com/PolarWolf314/sshvault/internal/workflows"
)

var (
	doctorJSONOutput bool
	// doctorExitFunc is the function called to exit with a specific code.
	// Can be overridden for testing.
	doctorExitFunc = os.Exit
	// doctorLookPath finds the external tools. Can be overridden for testing.
	doctorLookPath = toolexec.LookPath
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSONOutput, "json", false, "output in JSON format")
	RootCmd.AddCommand(doctorCmd)
}

func resetDoctorCommandState() {
	doctorJSONOutput = false
	doctorExitFunc = os.Exit
	doctorLookPath = toolexec.LookPath
}

// SetDoctorExitFunc sets the exit function for testing purposes.
func SetDoctorExitFunc(f func(int)) {
	doctorExitFunc = f
}

// SetDoctorLookPath sets the tool lookup for testing purposes.
func SetDoctorLookPath(f func(string) (string, error)) {
	doctorLookPath = f
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the local key setup",
	Long: `Runs a series of health checks and reports issues.

The doctor command checks:
  - ssh-keygen and ansible-vault are on PATH
  - The vars file exists and is encrypted, not plaintext
  - The vault password file exists and is readable only by you
  - The private key exists with mode 0600
  - The public key parses and belongs to the private key

Exit codes:
  0 - All checks passed
  1 - Warnings found (non-critical issues)
  2 - Errors found (critical issues)

Use --json for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting doctor command")
	out := cmd.OutOrStdout()

	spinner, cleanup := startSpinner("Running health checks...", out)
	defer cleanup()

	result, err := workflows.Doctor(cmd.Context(), workflows.DoctorOptions{
		DestinationPath: Settings.DestinationPath,
		VaultPassFile:   Settings.VaultPassFile,
		KeyFile:         Settings.KeyFile,
		VaultBinary:     Settings.VaultBinary,
		KeygenBinary:    Settings.KeygenBinary,
		LookPath:        doctorLookPath,
	})
	if err != nil {
		spinner.FinalMSG = ui.Cross() + " Failed to run health checks: " + err.Error()
		return reported(err)
	}

	for _, check := range result.Checks {
		Logger.Debugf("Check %s: status=%s, message=%s", check.Name, check.Status.String(), check.Message)
	}

	spinner.FinalMSG = ""
	if doctorJSONOutput {
		if err := outputDoctorJSON(out, result); err != nil {
			return err
		}
	} else {
		printDoctorResults(out, result)
		switch {
		case result.Summary.Errors > 0:
			spinner.FinalMSG = ui.Cross() + " Health checks completed with errors"
		case result.Summary.Warnings > 0:
			spinner.FinalMSG = ui.Alert() + " Health checks completed with warnings"
		default:
			spinner.FinalMSG = ui.Tick() + " Health checks completed"
		}
	}

	if code := result.ExitCode(); code != 0 {
		// Print the final message before exiting.
		cleanup()
		doctorExitFunc(code)
	}
	return nil
}

// outputDoctorJSON outputs the result as JSON.
func outputDoctorJSON(out io.Writer, result *workflows.DoctorResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// printDoctorResults prints the doctor results in a human-readable format.
func printDoctorResults(out io.Writer, result *workflows.DoctorResult) {
	fmt.Fprintln(out, "Running health checks...")
	fmt.Fprintln(out)

	for _, check := range result.Checks {
		var statusIcon string
		switch check.Status {
		case workflows.CheckPass:
			statusIcon = ui.Tick()
		case workflows.CheckWarning:
			statusIcon = ui.Alert()
		case workflows.CheckError:
			statusIcon = ui.Cross()
		}
		fmt.Fprintf(out, "%s %s: %s\n", statusIcon, check.Name, check.Message)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Summary: %d passed", result.Summary.Passed)
	if result.Summary.Warnings > 0 {
		fmt.Fprintf(out, ", %s", ui.Warning.Sprint(fmt.Sprintf("%d warning(s)", result.Summary.Warnings)))
	}
	if result.Summary.Errors > 0 {
		fmt.Fprintf(out, ", %s", ui.Error.Sprint(fmt.Sprintf("%d error(s)", result.Summary.Errors)))
	}
	fmt.Fprintln(out)

	if len(result.Suggestions) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Suggestions:")
		for _, suggestion := range result.Suggestions {
			fmt.Fprintf(out, "  %s %s\n", ui.Arrow(), suggestion)
		}
	}
}
