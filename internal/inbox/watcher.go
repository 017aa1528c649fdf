package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/logging"
)

// DefaultSettle is how long a file must stop changing before it is analyzed
const DefaultSettle = 500 * time.Millisecond

// Watcher runs a Processor over documents appearing in a directory. Documents
// already present are processed first; later ones once they stop changing.
// Files are handled one at a time.
type Watcher struct {
	watcher   *fsnotify.Watcher
	processor *Processor
	runLog    *logging.RunLog
	settle    time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]fileStamp
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// WatcherOptions configures a Watcher
type WatcherOptions struct {
	Settle time.Duration
	// RunLog, if set, records every processed document
	RunLog *logging.RunLog
}

// NewWatcher creates a new directory watcher
func NewWatcher(processor *Processor, opts WatcherOptions) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	return &Watcher{
		watcher:   w,
		processor: processor,
		runLog:    opts.RunLog,
		settle:    opts.Settle,
		pending:   map[string]*time.Timer{},
		seen:      map[string]fileStamp{},
	}, nil
}

// Run processes dir until ctx is done or the watcher is stopped
func (w *Watcher) Run(ctx context.Context, dir string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info().Str("dir", dir).Msg("Watching inbox")

	ready := make(chan string, 100)

	existing, err := w.existing(dir)
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.schedule(ctx, path, ready)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case path := <-ready:
				w.process(ctx, path)
			}
		}
	}()

	shutdown := func() error {
		w.stopTimers()
		cancel()
		<-done
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return shutdown()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return shutdown()
			}
			if !Accepts(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(ctx, event.Name, ready)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return shutdown()
			}
			log.Warn().Err(err).Msg("Inbox watcher error")
		}
	}
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) existing(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.Type().IsRegular() && Accepts(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// schedule (re)starts the settle timer for path
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// unchanged reports whether path was already processed in its current form
func (w *Watcher) unchanged(path string, info os.FileInfo) bool {
	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.seen[path]; ok && prev == stamp {
		return true
	}
	w.seen[path] = stamp
	return false
}

func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 || w.unchanged(path, info) {
		return
	}

	w.runLog.LogSection(filepath.Base(path))
	outputs, err := w.processor.Process(ctx, path)
	w.runLog.LogOutcome(path, outputs, err)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Inbox document failed")
	}
}
