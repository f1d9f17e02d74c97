package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
	"github.com/PolarWolf314/sshvault/internal/ui"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// calls ui.EnsureNewline() on the final message and prints it to out.
func startSpinner(message string, out io.Writer) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !Logger.Verbose && !Logger.Debug
	if quiet {
		s.Start()
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Fprint(out, finalMsg)
		}
	}

	return s, cleanup
}

// stageMessage is the spinner text shown while a stage runs.
func stageMessage(stage kerrors.Stage) string {
	switch stage {
	case kerrors.StageCheckDestination:
		return "Checking vars file..."
	case kerrors.StageResolvePassphrase:
		return "Reading vault passphrase..."
	case kerrors.StagePersistPassphrase:
		return "Saving vault password file..."
	case kerrors.StageGenerateKeys:
		return "Generating ed25519 keypair..."
	case kerrors.StageWriteDocument:
		return "Writing vars file..."
	case kerrors.StageEncrypt:
		return "Encrypting vars file..."
	case kerrors.StageDecrypt:
		return "Decrypting vars file..."
	case kerrors.StageMaterialize:
		return "Writing SSH key files..."
	case kerrors.StageReencrypt:
		return "Re-encrypting vars file..."
	default:
		return string(stage) + "..."
	}
}
