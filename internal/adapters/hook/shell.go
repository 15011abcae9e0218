package hook

import (
	"context"
	"strings"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// Shell runs a command line through sh -c.
type Shell struct {
	command string
	logger  ports.Logger
}

// NewShell creates a shell hook.
func NewShell(command string, logger ports.Logger) *Shell {
	return &Shell{command: command, logger: logger}
}

// Run executes the command in the application directory. Output on stderr
// counts as a failure even when the command exits zero.
func (s *Shell) Run(ctx context.Context, hc ports.HookContext) error {
	res := run(ctx, hc.Path, hookEnv(hc), nil, "sh", "-c", s.command)

	if out := strings.TrimSpace(res.stdout); out != "" {
		s.logger.Info("hook output", ports.String("hook", hc.Name), ports.String("output", out))
	}
	if res.err != nil || res.stderr != "" {
		return &domain.HookError{
			Hook:     hc.Name,
			Command:  s.command,
			Stderr:   res.stderr,
			ExitCode: res.exitCode,
			Err:      res.err,
		}
	}
	return nil
}

func (s *Shell) String() string {
	return KindShell + ": " + s.command
}
