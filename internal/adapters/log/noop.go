package log

import "github.com/bft-labs/appship/internal/ports"

var _ ports.Logger = NoopLogger{}

// NoopLogger discards every entry. It is the logger of an Appship built
// without WithLogger and of engine components constructed with a nil logger.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(string, ...ports.Field) {}
func (NoopLogger) Info(string, ...ports.Field)  {}
func (NoopLogger) Warn(string, ...ports.Field)  {}
func (NoopLogger) Error(string, ...ports.Field) {}
