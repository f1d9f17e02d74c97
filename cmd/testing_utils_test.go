package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/sshvault/internal/configs"
	"github.com/PolarWolf314/sshvault/internal/testutil"
)

const testPassphrase = "hunter2"

var sshvaultEnv = []string{
	"SSHVAULT_CONFIG",
	"SSHVAULT_DESTINATION",
	"SSHVAULT_VAULT_PASS_FILE",
	"SSHVAULT_KEY_FILE",
	"SSHVAULT_COMMENT",
	"SSHVAULT_VAULT_BIN",
	"SSHVAULT_KEYGEN_BIN",
	"SSHVAULT_PASSPHRASE_POLICY",
	"SSHVAULT_VAULT_EXIT_STATUS",
	"SSHVAULT_VERBOSE",
	"SSHVAULT_DEBUG",
}

// testEnv is an isolated home, config and data directory with fake tools.
type testEnv struct {
	t        *testing.T
	resolver configs.StaticPathResolver
	defaults *configs.Settings
	tools    *testutil.Toolbox
	prompts  int
	// exitCode is what doctor last exited with, or -1.
	exitCode int
	// lookPath replaces the doctor's PATH lookup; nil finds every tool.
	lookPath func(string) (string, error)
}

// setupTestEnvironment points every default path into a temp directory and
// swaps ssh-keygen, ansible-vault and the passphrase prompt for fakes.
func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	for _, name := range sshvaultEnv {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	env := &testEnv{
		t:        t,
		resolver: configs.NewTestResolver(t.TempDir()),
		tools:    testutil.NewToolbox(),
		exitCode: -1,
	}
	env.defaults = configs.Defaults(env.resolver)
	require.NoError(t, os.MkdirAll(env.resolver.Home, 0700))

	ResetGlobalState()
	SetPathResolver(env.resolver)
	SetToolRunner(env.tools)
	SetPrompt(func(string) ([]byte, error) {
		env.prompts++
		return []byte(testPassphrase), nil
	})

	t.Cleanup(func() {
		ResetGlobalState()
		RootCmd.SetArgs(nil)
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
	})
	return env
}

// run executes one sshvault invocation and returns everything it printed.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()

	// Flags keep their values between executions of the same command tree.
	resetLifecycleState()
	resetDoctorCommandState()
	resetLogCommandState()
	resetConfigShowState()
	versionBanner = false
	resetCobraFlagState(RootCmd)
	if e.lookPath != nil {
		SetDoctorLookPath(e.lookPath)
	} else {
		SetDoctorLookPath(func(name string) (string, error) {
			return "/usr/bin/" + name, nil
		})
	}
	SetDoctorExitFunc(func(code int) {
		e.exitCode = code
	})
	e.exitCode = -1

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func (e *testEnv) home(parts ...string) string {
	return filepath.Join(append([]string{e.resolver.Home}, parts...)...)
}

func (e *testEnv) writeFile(path, content string, perm os.FileMode) {
	e.t.Helper()
	require.NoError(e.t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(e.t, os.WriteFile(path, []byte(content), perm))
}

func (e *testEnv) removeKeys() {
	e.t.Helper()
	require.NoError(e.t, os.Remove(e.defaults.KeyFile))
	require.NoError(e.t, os.Remove(e.defaults.KeyFile+".pub"))
}
