package ports

import "context"

// Lifecycle events dispatched by a push.
const (
	HookPrePush  = "pre-push"
	HookPostPush = "post-push"
)

// HookContext is passed to every hook invocation.
type HookContext struct {
	// Path is the application source directory
	Path string

	// Name is the lifecycle event (pre-push, post-push)
	Name string

	// Destinations are the names of the resolved databases
	Destinations []string

	// PushID identifies the invocation
	PushID string
}

// Hook is an executable object run at a lifecycle event.
type Hook interface {
	// Run invokes the hook. A non-nil error aborts the push.
	Run(ctx context.Context, hc HookContext) error

	// String describes the hook for logs.
	String() string
}

// HookRegistry returns the hooks registered for an event, in registration order.
type HookRegistry interface {
	Hooks(name string) ([]Hook, error)
}

// Configurer exposes the configuration of one invocation to the engine.
type Configurer interface {
	HookRegistry
	DestinationResolver

	// Update merges the application-local configuration found in appDir.
	Update(appDir string) error
}

// Browser opens a URL for the user.
type Browser interface {
	Open(url string) error
}
