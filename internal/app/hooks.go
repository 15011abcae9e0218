package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/appship/internal/ports"
)

// HookDispatcher runs the hooks registered for a lifecycle event.
type HookDispatcher struct {
	registry ports.HookRegistry
	logger   ports.Logger
	pushID   string
}

// NewHookDispatcher creates a dispatcher over the given registry.
func NewHookDispatcher(registry ports.HookRegistry, logger ports.Logger, pushID string) *HookDispatcher {
	return &HookDispatcher{
		registry: registry,
		logger:   logger,
		pushID:   pushID,
	}
}

// Dispatch invokes every hook registered under name, in registration order.
// The first failing hook stops the dispatch and its error is returned.
func (d *HookDispatcher) Dispatch(ctx context.Context, path, name string, dbs []ports.Database) error {
	hooks, err := d.registry.Hooks(name)
	if err != nil {
		return fmt.Errorf("resolve %s hooks: %w", name, err)
	}
	if len(hooks) == 0 {
		return nil
	}

	hc := ports.HookContext{
		Path:         path,
		Name:         name,
		Destinations: ports.DatabaseNames(dbs),
		PushID:       d.pushID,
	}

	for _, h := range hooks {
		start := time.Now()
		if err := h.Run(ctx, hc); err != nil {
			d.logger.Error("hook failed",
				ports.String("hook", name),
				ports.String("run", h.String()),
				ports.Err(err),
			)
			return fmt.Errorf("%s hook: %w", name, err)
		}
		d.logger.Debug("hook finished",
			ports.String("hook", name),
			ports.String("run", h.String()),
			ports.Duration("duration", time.Since(start)),
		)
	}
	return nil
}
