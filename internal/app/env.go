package app

import (
	"io"
	"os"

	"github.com/go-git/go-billy/v5"

	logAdapter "github.com/bft-labs/appship/internal/adapters/log"
	"github.com/bft-labs/appship/internal/ports"
)

// Env carries everything one invocation of the engine needs. It replaces
// process-wide configuration so tests can inject stub destinations, hook
// registries and filesystems.
type Env struct {
	// Config resolves hooks and destinations and merges application rc files
	Config ports.Configurer

	// Loader reads documents and companion files
	Loader ports.DocumentLoader

	// FS is the filesystem the application tree and export files live on
	FS billy.Filesystem

	// Stdout receives export output when no output file is set
	Stdout io.Writer

	// Browser opens pushed applications; browsing is skipped when nil
	Browser ports.Browser

	// Logger receives structured logs; a no-op logger is used when nil
	Logger ports.Logger

	// PushID identifies the invocation in logs and hook environments
	PushID string

	// Getwd returns the working directory used to resolve relative paths
	Getwd func() (string, error)
}

func (e Env) withDefaults() Env {
	if e.Logger == nil {
		e.Logger = logAdapter.NewNoopLogger()
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Getwd == nil {
		e.Getwd = os.Getwd
	}
	return e
}
