// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when guidance inputs change on disk.
//
// A Watcher monitors one or more directory trees and invokes OnChange after a
// debounce period. Events within the debounce window are coalesced so the
// callback fires once with the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period before OnChange fires. Editors that
// write a temp file and rename it produce several events per save.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores are never watched. They are matched against paths relative
// to the root that contains them.
var defaultIgnores = []string{
	".git",
	"**/.git/**",
	"**/node_modules/**",
	"**/target/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// ErrNoRoots is returned by New when the configuration names no directory.
var ErrNoRoots = errors.New("watch: no directories to watch")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the directories watched recursively. Roots nested inside
		// another root are folded into it.
		Roots []string

		// Patterns are doublestar patterns, relative to the containing root,
		// selecting which files trigger callbacks. Empty matches every file.
		Patterns []string

		// Ignore are additional doublestar patterns that never trigger callbacks.
		Ignore []string

		// Skip lists files and directories, by absolute path, whose events are
		// dropped. Generated output goes here so a write does not retrigger.
		Skip []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// OnChange is called with the deduplicated, sorted absolute paths that
		// changed. An error is logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error
	}

	// Watcher monitors directories and fires a debounced callback when
	// matching files change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []string
		skip     []string
		ignores  []string
		debounce time.Duration
		started  atomic.Bool
	}
)

// New validates cfg, creates the fsnotify watcher and registers every
// non-ignored directory under each root.
func New(cfg Config) (*Watcher, error) {
	roots, err := normalizeRoots(cfg.Roots)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	skip := make([]string, 0, len(cfg.Skip))
	for _, p := range cfg.Skip {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve skipped path %q: %w", p, err)
		}
		skip = append(skip, abs)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		roots:    roots,
		skip:     skip,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
	}

	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				slog.Warn("watch: close after init failure", "error", closeErr)
			}
			return nil, err
		}
	}

	return w, nil
}

// Roots returns the directories being watched after nested roots were folded.
func (w *Watcher) Roots() []string { return slices.Clone(w.roots) }

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and the error of a broken watcher otherwise.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after cancellation because it is scheduled by AfterFunc.
	// A callback still running when the timer fires again postpones the batch.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
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

		if w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			slog.Warn("watch: callback failed", "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			slog.Warn("watch: close fsnotify", "error", err)
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
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}
			if w.skipped(evt.Name) {
				continue
			}

			// Directories created after startup join the watch.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			if !w.relevant(evt.Name) {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
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
			slog.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// addTree registers root and every non-ignored directory below it.
// Inaccessible directories are skipped with a warning.
func (w *Watcher) addTree(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch: %w", err)
			}
			slog.Warn("watch: skipping inaccessible path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (w.ignored(root, path) || w.skipped(path)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %s: %w", root, walkErr)
	}
	return nil
}

// maybeAddDir adds path if it is a new, non-ignored directory.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	root, ok := w.rootOf(path)
	if !ok || w.ignored(root, path) {
		return
	}
	if err := w.addTree(path); err != nil {
		slog.Warn("watch: add new directory", "path", path, "error", err)
	}
}

// relevant reports whether an event on path should schedule the callback.
func (w *Watcher) relevant(path string) bool {
	root, ok := w.rootOf(path)
	if !ok || w.ignored(root, path) {
		return false
	}
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	return matchAny(w.cfg.Patterns, relSlash(root, path))
}

func (w *Watcher) ignored(root, path string) bool {
	rel := relSlash(root, path)
	return matchAny(w.ignores, rel) || matchAny(w.ignores, rel+"/")
}

func (w *Watcher) skipped(path string) bool {
	for _, s := range w.skip {
		if within(s, path) {
			return true
		}
	}
	return false
}

// rootOf returns the watched root containing path.
func (w *Watcher) rootOf(path string) (string, bool) {
	for _, r := range w.roots {
		if within(r, path) {
			return r, true
		}
	}
	return "", false
}

// normalizeRoots makes roots absolute, sorts them and drops any root nested
// inside another one.
func normalizeRoots(roots []string) ([]string, error) {
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		if r == "" {
			continue
		}
		a, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve root %q: %w", r, err)
		}
		abs = append(abs, a)
	}
	slices.Sort(abs)
	abs = slices.Compact(abs)

	out := abs[:0]
	for _, r := range abs {
		if len(out) > 0 && within(out[len(out)-1], r) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// validatePatterns checks that every pattern is a valid doublestar glob.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, err)
		}
	}
	return nil
}
