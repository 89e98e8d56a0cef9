// Package watcher reruns the generation pipeline when its input files
// change.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long the watcher waits for further changes before
// rerunning.
const DefaultDebounce = 250 * time.Millisecond

// RunFunc is one complete pipeline run.
type RunFunc func(ctx context.Context) error

// Watcher watches a set of files.
type Watcher struct {
	run      RunFunc
	debounce time.Duration
	refresh  func() []string
	logger   zerolog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets the quiet period after the last change.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithRefresh sets the function returning the files to watch after each
// run, for runs whose inputs name further inputs.
func WithRefresh(fn func() []string) Option {
	return func(w *Watcher) {
		w.refresh = fn
	}
}

// New returns a watcher calling run after changes.
func New(run RunFunc, opts ...Option) *Watcher {
	w := &Watcher{
		run:      run,
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is done, calling run once per burst of changes to
// any of files. Directories are watched rather than files so that editors
// replacing a file by rename are seen. A failed run is logged and watching
// continues; the previous output stays in place. With WithRefresh the
// watched set is replaced after every run.
func (w *Watcher) Watch(ctx context.Context, files ...string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	set := &fileSet{fw: fw, dirs: make(map[string]bool)}
	if err := set.update(files); err != nil {
		return err
	}

	w.logger.Info().Strs("files", files).Msg("watching for changes")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !set.files[filepath.Clean(ev.Name)] || !relevant(ev.Op) {
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Stringer("op", ev.Op).Msg("change detected")
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			start := time.Now()
			if err := w.run(ctx); err != nil {
				w.logger.Error().Err(err).Msg("regeneration failed")
			} else {
				w.logger.Info().Dur("took", time.Since(start)).Msg("regenerated")
			}

			if w.refresh != nil {
				next := w.refresh()
				if err := set.update(next); err != nil {
					w.logger.Warn().Err(err).Msg("watch list not updated")
					continue
				}
				w.logger.Debug().Strs("files", next).Msg("watch list updated")
			}
		}
	}
}

// fileSet is the set of watched files and the directories holding them.
type fileSet struct {
	fw    *fsnotify.Watcher
	files map[string]bool
	dirs  map[string]bool
}

// update replaces the watched files, adding directories that became
// needed and removing those no longer needed. On error the previous set
// stays in effect.
func (s *fileSet) update(files []string) error {
	nextFiles := make(map[string]bool, len(files))
	nextDirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch %s: %w", f, err)
		}
		nextFiles[abs] = true
		nextDirs[filepath.Dir(abs)] = true
	}

	var added []string
	for dir := range nextDirs {
		if s.dirs[dir] {
			continue
		}
		if err := s.fw.Add(dir); err != nil {
			for _, d := range added {
				_ = s.fw.Remove(d)
			}
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		added = append(added, dir)
	}
	for dir := range s.dirs {
		if !nextDirs[dir] {
			_ = s.fw.Remove(dir)
		}
	}

	s.files = nextFiles
	s.dirs = nextDirs
	return nil
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
