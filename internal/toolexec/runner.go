// Package toolexec runs the external tools sshvault sequences: ssh-keygen
// and ansible-vault.
//
// Tool is the seam the rest of the code depends on, so lifecycle decisions
// can be tested against fakes without spawning real processes. Exec is the
// os/exec implementation. Calls block until the child exits; there is no
// timeout or retry, and a hung tool hangs the caller.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	kerrors "github.com/PolarWolf314/sshvault/internal/errors"
)

// Result is the outcome of a tool invocation that was spawned and waited on.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports whether the tool exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Summary returns the trimmed stderr, falling back to stdout, for error messages.
func (r *Result) Summary() string {
	if r == nil {
		return ""
	}
	if s := strings.TrimSpace(string(r.Stderr)); s != "" {
		return s
	}
	return strings.TrimSpace(string(r.Stdout))
}

// Tool runs an external program.
//
// Run returns an error wrapping ErrExternalTool only when the program could
// not be spawned or waited on. A program that ran and exited non-zero yields
// a Result with a non-zero ExitCode and a nil error; callers decide what a
// non-zero exit means.
type Tool interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// Exec runs programs with os/exec.
type Exec struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// NewExec returns a Tool that spawns real processes.
func NewExec() *Exec {
	return &Exec{}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr) && exitErr.Exited():
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	default:
		return nil, fmt.Errorf("%w: running %s: %w", kerrors.ErrExternalTool, name, err)
	}
}

// LookPath reports where name resolves on PATH.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found on PATH: %w", kerrors.ErrExternalTool, name, err)
	}
	return path, nil
}
