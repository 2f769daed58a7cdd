// SPDX-License-Identifier: MPL-2.0

// Package watch turns filesystem events on the slot source into debounced
// change signals.
//
// The watcher observes a single directory (the one holding the source
// file) rather than the file itself: hosts and editors commonly save by
// writing a temp file and renaming it over the original, which detaches
// a per-file watch. Events are filtered by glob and coalesced so a burst
// of writes produces one callback.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before OnChange fires.
const DefaultDebounce = 200 * time.Millisecond

// ErrAlreadyStarted is returned by a second call to Run.
var ErrAlreadyStarted = errors.New("watch: Run called more than once")

// defaultIgnores are editor and OS artifacts that never count as a change.
var defaultIgnores = []string{
	"*.swp",
	"*.swo",
	"*~",
	".#*",
	".DS_Store",
	"*.tmp",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the directory to observe. Empty means the working directory.
		Dir string

		// Patterns are doublestar globs, relative to Dir, selecting the files
		// that count as changes. An empty slice accepts every non-ignored file.
		Patterns []string

		// Ignore adds globs to the built-in editor and OS ignores.
		Ignore []string

		// Debounce is the quiet period; zero or negative means DefaultDebounce.
		Debounce time.Duration

		// OnChange receives the sorted, deduplicated names that changed within
		// one debounce window. Invocations never overlap.
		OnChange func(ctx context.Context, changed []string)

		// Logger receives non-fatal watcher diagnostics. nil discards them.
		Logger *log.Logger
	}

	// Watcher observes Dir and fires OnChange after each burst of matching
	// events. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		dir      string
		ignores  []string
		debounce time.Duration
		logger   *log.Logger
		started  atomic.Bool
	}
)

// New validates cfg and registers Dir with the platform notifier.
func New(cfg Config) (*Watcher, error) {
	dir := cfg.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		dir = wd
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}

	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(absDir); err != nil {
		fsw.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("watch: add directory %q: %w", absDir, err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		dir:      absDir,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Dir returns the absolute directory being observed.
func (w *Watcher) Dir() string { return w.dir }

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the platform notifier breaks down.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			// Retry later so the pending set is not lost.
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			w.cfg.OnChange(ctx, changed)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Op == fsnotify.Chmod {
				continue
			}
			rel, err := filepath.Rel(w.dir, evt.Name)
			if err != nil {
				rel = filepath.Base(evt.Name)
			}
			if !w.Accepts(rel) {
				continue
			}

			w.logger.Debug("source event", "file", rel, "op", evt.Op.String())
			mu.Lock()
			pending[filepath.ToSlash(rel)] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// Accepts reports whether a path relative to Dir counts as a change.
func (w *Watcher) Accepts(rel string) bool {
	normalized := filepath.ToSlash(rel)
	if matchAny(w.ignores, normalized) || matchAny(w.ignores, filepath.Base(rel)) {
		return false
	}
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, normalized)
}

// DefaultIgnores returns a copy of the built-in ignore globs.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, name); err == nil && matched {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}
