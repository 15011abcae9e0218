package fs

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/appship/internal/ports"
)

// DefaultDebounce is the quiet period after the last change before a re-push.
const DefaultDebounce = 300 * time.Millisecond

// Watcher monitors an application tree via fsnotify and reports changes
// once the tree has been quiet for the debounce period.
type Watcher struct {
	root     string
	delay    time.Duration
	logger   ports.Logger
	mu       sync.Mutex
	debounce *time.Timer
	trigger  chan struct{}
}

// NewWatcher creates a watcher for the directory tree at root. root is a host
// path; fsnotify cannot observe a billy filesystem.
func NewWatcher(root string, delay time.Duration, logger ports.Logger) *Watcher {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Watcher{
		root:    root,
		delay:   delay,
		logger:  logger,
		trigger: make(chan struct{}, 1),
	}
}

// Run watches the tree until ctx is cancelled. onChange is called from the
// Run goroutine, so two calls never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.root); err != nil {
		return err
	}
	w.logger.Info("watching for changes", ports.String("path", w.root))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if hidden(w.root, event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories are not covered by the existing watches
				if err := w.addTree(watcher, event.Name); err != nil {
					w.logger.Debug("failed to watch new entry", ports.String("path", event.Name), ports.Err(err))
				}
			}
			w.debounceTrigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", ports.Err(err))

		case <-w.trigger:
			onChange(ctx)
		}
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) debounceTrigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}

	w.debounce = time.AfterFunc(w.delay, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}

// hidden reports whether any element of p below root starts with a dot.
func hidden(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
