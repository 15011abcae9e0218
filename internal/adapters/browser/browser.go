// Package browser opens URLs with the platform's default handler.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener implements ports.Browser by starting the platform URL handler.
type Opener struct {
	goos  string
	start func(name string, args ...string) error
}

// New creates an opener for the running platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, start: startDetached}
}

// Open starts the URL handler and returns without waiting for it.
func (o *Opener) Open(url string) error {
	name, args := command(o.goos, url)
	if err := o.start(name, args...); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

func command(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
