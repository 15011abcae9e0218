package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent error conditions in the appship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrNotInApp is returned when no application directory can be resolved.
	ErrNotInApp = errors.New("appship: not inside an application")

	// ErrNoDestination is returned when a destination cannot be resolved to any database.
	ErrNoDestination = errors.New("appship: no destination")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("appship: invalid configuration")

	// ErrNotFound is returned when a document or revision does not exist on a destination.
	ErrNotFound = errors.New("appship: not found")

	// ErrConflict is returned when a destination rejects a save because of a stale revision.
	ErrConflict = errors.New("appship: revision conflict")

	// ErrHookFailed is returned when a hook reports a failure.
	ErrHookFailed = errors.New("appship: hook failed")

	// ErrMalformedDocument is returned when a companion JSON file cannot be decoded.
	ErrMalformedDocument = errors.New("appship: malformed document")
)

// ConflictError describes a rejected single-document save.
type ConflictError struct {
	ID     string
	Rev    string
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("revision conflict on %q", e.ID)
	}
	return fmt.Sprintf("revision conflict on %q: %s", e.ID, e.Reason)
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// HookError is returned when a hook fails. Stderr holds whatever the hook wrote
// on its error stream.
type HookError struct {
	Hook     string
	Command  string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *HookError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "hook %s (%s) failed", e.Hook, e.Command)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " with exit code %d", e.ExitCode)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is ErrHookFailed.
func (e *HookError) Is(target error) bool {
	return target == ErrHookFailed
}

// Unwrap returns the underlying execution error, if any.
func (e *HookError) Unwrap() error {
	return e.Err
}
