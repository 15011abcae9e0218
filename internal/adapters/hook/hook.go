// Package hook runs lifecycle hooks as subprocesses.
//
// Two kinds of hook exist. A shell hook is a command line run with sh -c in
// the application directory; it fails when it exits non-zero or writes
// anything to stderr. A script hook is an executable that receives the hook
// context and the invocation configuration as JSON on stdin; it fails when it
// exits non-zero.
package hook

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/bft-labs/appship/internal/ports"
)

// Hook kinds.
const (
	KindShell  = "shell"
	KindScript = "script"
)

// Spec declares one hook.
type Spec struct {
	Kind    string `toml:"kind" yaml:"kind" json:"kind"`
	Command string `toml:"command" yaml:"command" json:"command"`
}

// result holds the outcome of one subprocess.
type result struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

// run executes cmd with stdin, fully draining both output streams before it
// returns.
func run(ctx context.Context, dir string, env []string, stdin []byte, name string, args ...string) result {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := result{
		stdout: stdout.String(),
		stderr: stderr.String(),
		err:    err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
	}
	return res
}

// hookEnv returns the APPSHIP_* variables describing hc.
func hookEnv(hc ports.HookContext) []string {
	return []string{
		"APPSHIP_HOOK=" + hc.Name,
		"APPSHIP_PATH=" + hc.Path,
		"APPSHIP_DESTINATIONS=" + strings.Join(hc.Destinations, " "),
		"APPSHIP_PUSH_ID=" + hc.PushID,
	}
}
