// Package watcher notices edits to the config file so the daemon can
// reload it.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/layman/logging"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce swallows the burst of writes an editor makes on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches one config file. Editors replace files by rename, so the
// containing directory is watched and events are filtered by name. A
// symlinked file is followed to its target directory too, since fsnotify
// does not resolve links.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	target   string
	debounce time.Duration
	onChange func(file string)
	logger   *logrus.Entry

	mu         sync.Mutex
	lastChange time.Time
}

// New creates a watcher for path. onChange runs on the watcher goroutine
// for every change that survives debouncing.
func New(path string, debounce time.Duration, onChange func(file string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger("config-watcher")

	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(abs)
		if err != nil {
			logger.WithError(err).Warnf("Failed to resolve symlink %s", abs)
		} else {
			w.target = target
			if dir := filepath.Dir(target); dir != filepath.Dir(abs) {
				if err := fw.Add(dir); err != nil {
					logger.WithError(err).Warnf("Failed to watch symlink target dir %s", dir)
				} else {
					logger.Debugf("Watching symlink target directory: %s", dir)
				}
			}
		}
	}
	return w, nil
}

// Start watches until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if w.matches(event.Name) {
				w.handleChange(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

func (w *Watcher) matches(name string) bool {
	name = filepath.Clean(name)
	return name == w.path || (w.target != "" && name == w.target)
}

// handleChange runs onChange unless a change was reported within the
// debounce window.
func (w *Watcher) handleChange(file string) {
	w.mu.Lock()
	elapsed := time.Since(w.lastChange)
	if elapsed < w.debounce {
		w.mu.Unlock()
		w.logger.Debugf("Debounced: %s (only %v since last change)", filepath.Base(file), elapsed)
		return
	}
	w.lastChange = time.Now()
	w.mu.Unlock()

	w.logger.Infof("Config changed: %s", filepath.Base(file))
	if w.onChange != nil {
		w.onChange(w.path)
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
