package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// payload is the document a script hook reads from stdin.
type payload struct {
	Hook         string   `json:"hook"`
	Path         string   `json:"path"`
	Destinations []string `json:"destinations"`
	PushID       string   `json:"push_id"`
	Config       any      `json:"config,omitempty"`
}

// Script runs an executable that receives the hook context as JSON.
type Script struct {
	path   string
	config any
	logger ports.Logger
}

// NewScript creates a script hook. config is embedded in every payload.
func NewScript(path string, config any, logger ports.Logger) *Script {
	return &Script{path: path, config: config, logger: logger}
}

// Run executes the script. A relative script path is resolved against the
// application directory.
func (s *Script) Run(ctx context.Context, hc ports.HookContext) error {
	input, err := json.Marshal(payload{
		Hook:         hc.Name,
		Path:         hc.Path,
		Destinations: hc.Destinations,
		PushID:       hc.PushID,
		Config:       s.config,
	})
	if err != nil {
		return fmt.Errorf("encode hook payload: %w", err)
	}

	path := s.path
	if !filepath.IsAbs(path) {
		path = filepath.Join(hc.Path, path)
	}

	res := run(ctx, hc.Path, hookEnv(hc), input, path)
	if out := strings.TrimSpace(res.stdout); out != "" {
		s.logger.Info("hook output", ports.String("hook", hc.Name), ports.String("output", out))
	}
	if res.err != nil {
		return &domain.HookError{
			Hook:     hc.Name,
			Command:  s.path,
			Stderr:   res.stderr,
			ExitCode: res.exitCode,
			Err:      res.err,
		}
	}
	if msg := strings.TrimSpace(res.stderr); msg != "" {
		s.logger.Warn("hook wrote to stderr", ports.String("hook", hc.Name), ports.String("stderr", msg))
	}
	return nil
}

func (s *Script) String() string {
	return KindScript + ": " + s.path
}
