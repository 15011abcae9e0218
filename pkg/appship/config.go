package appship

import (
	"github.com/bft-labs/appship/internal/adapters/hook"
	"github.com/bft-labs/appship/internal/cliconfig"
	"github.com/bft-labs/appship/internal/domain"
)

// Config holds the destinations, hooks and timeouts of an Appship instance.
type Config = cliconfig.Config

// HookSpec declares one hook.
type HookSpec = hook.Spec

// PushOptions holds the options recognised by Push and PushDocs.
type PushOptions = domain.PushOptions

// SyncReport describes one companion synchronization run.
type SyncReport = domain.SyncReport

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Errors returned by Appship; check with errors.Is.
var (
	ErrNotInApp      = domain.ErrNotInApp
	ErrNoDestination = domain.ErrNoDestination
	ErrInvalidConfig = domain.ErrInvalidConfig
	ErrHookFailed    = domain.ErrHookFailed
	ErrConflict      = domain.ErrConflict
)
