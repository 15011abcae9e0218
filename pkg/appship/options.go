package appship

import (
	"io"
	"net/http"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/bft-labs/appship/internal/adapters/browser"
	logAdapter "github.com/bft-labs/appship/internal/adapters/log"
	"github.com/bft-labs/appship/internal/ports"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// Browser opens pushed applications.
type Browser = ports.Browser

// Option configures optional behavior of Appship.
type Option func(*options)

// options holds the optional configuration for an Appship instance.
type options struct {
	httpClient ports.HTTPClient
	logger     ports.Logger
	fs         billy.Filesystem
	hostFS     bool
	stdout     io.Writer
	browser    ports.Browser
	getwd      func() (string, error)
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(client *http.Client) options {
	return options{
		httpClient: client,
		logger:     logAdapter.NewNoopLogger(),
		fs:         osfs.New("/"),
		hostFS:     true,
		stdout:     os.Stdout,
		browser:    browser.New(),
		getwd:      os.Getwd,
	}
}

// WithHTTPClient sets a custom HTTP client for database communication.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFilesystem sets the filesystem applications are read from and export
// files are written to. Paths are absolute within it.
//
// Watch needs change notifications from the host and is unavailable on an
// Appship built with a custom filesystem.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
		o.hostFS = false
	}
}

// WithStdout sets the writer receiving export output.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		o.stdout = w
	}
}

// WithBrowser sets how pushed applications are opened. A nil browser
// disables browsing.
func WithBrowser(b Browser) Option {
	return func(o *options) {
		o.browser = b
	}
}

// WithWorkingDir fixes the directory relative paths are resolved against.
func WithWorkingDir(dir string) Option {
	return func(o *options) {
		o.getwd = func() (string, error) { return dir, nil }
	}
}
