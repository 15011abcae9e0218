package hook

import (
	"fmt"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// Build constructs the hook declared by spec.
func Build(spec Spec, config any, logger ports.Logger) (ports.Hook, error) {
	if spec.Command == "" {
		return nil, fmt.Errorf("%w: %s hook has no command", domain.ErrInvalidConfig, spec.Kind)
	}
	switch spec.Kind {
	case KindShell, "":
		return NewShell(spec.Command, logger), nil
	case KindScript:
		return NewScript(spec.Command, config, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown hook kind %q", domain.ErrInvalidConfig, spec.Kind)
	}
}

// Registry implements ports.HookRegistry. Hooks are built once, when the
// registry is created.
type Registry struct {
	hooks map[string][]ports.Hook
}

// NewRegistry builds every hook of specs, keyed by event name.
func NewRegistry(specs map[string][]Spec, config any, logger ports.Logger) (*Registry, error) {
	r := &Registry{hooks: make(map[string][]ports.Hook, len(specs))}
	for event, list := range specs {
		for i, spec := range list {
			h, err := Build(spec, config, logger)
			if err != nil {
				return nil, fmt.Errorf("hook %s[%d]: %w", event, i, err)
			}
			r.hooks[event] = append(r.hooks[event], h)
		}
	}
	return r, nil
}

// Hooks returns the hooks registered for name, in declaration order.
func (r *Registry) Hooks(name string) ([]ports.Hook, error) {
	return r.hooks[name], nil
}
