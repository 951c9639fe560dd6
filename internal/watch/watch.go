// Package watch re-runs a callback whenever one of a set of schema files is
// written or replaced.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher observes the directories of its files and reports changes of the
// files themselves.
type Watcher struct {
	files    map[string]string // absolute path -> path as given
	logger   zerolog.Logger
	onChange func(path string)

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New prepares a watcher for paths. onChange receives the path as given.
func New(paths []string, logger zerolog.Logger, onChange func(path string)) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("watch: no files")
	}
	files := make(map[string]string, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("absolute path: %w", err)
		}
		files[abs] = p
	}
	return &Watcher{
		files:    files,
		logger:   logger,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Directories are watched rather than files so that
// editors replacing a file through rename keep being observed.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dirs := make(map[string]struct{})
	for abs := range w.files {
		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch directory: %w", err)
		}
		dirs[dir] = struct{}{}
	}
	w.watcher = watcher

	go w.loop()

	w.logger.Info().Int("files", len(w.files)).Msg("watching schema files for changes")
	return nil
}

// Stop ends watching and waits for the event loop to exit. It is safe to
// call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
			<-w.done
		}
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name, ours := w.files[filepath.Clean(event.Name)]
			if !ours {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("schema file changed")
			w.onChange(name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("file watcher error")

		case <-w.stopCh:
			return
		}
	}
}
