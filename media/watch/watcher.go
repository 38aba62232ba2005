// Package watch keeps compressing images as they appear in a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/leeforge/compact/logging"
	"github.com/leeforge/compact/media/discovery"
	"github.com/leeforge/compact/media/pipeline"
	"github.com/leeforge/compact/media/quality"
)

// DefaultDebounce is how long a file must stay quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Runner executes a batch; *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, items []discovery.WorkItem) (*pipeline.BatchResult, error)
}

type Options struct {
	Dir        string
	OutputDir  string
	Extensions []string
	Debounce   time.Duration
	Logger     logging.Logger
	// OnResult receives the initial batch and every later single-file batch.
	OnResult func(*pipeline.BatchResult)
}

// Watcher runs one batch over Dir and then one single-item batch for every
// image file created or written there.
type Watcher struct {
	runner Runner
	opts   Options
	log    logging.Logger

	mu       sync.Mutex
	pending  map[string]*time.Timer
	nextItem int
}

func New(runner Runner, opts Options) *Watcher {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = quality.DefaultExtensions
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logging.Global()
	}
	return &Watcher{
		runner:  runner,
		opts:    opts,
		log:     opts.Logger.Named("watch"),
		pending: make(map[string]*time.Timer),
	}
}

// Run blocks until ctx is cancelled. Errors from the initial batch are
// returned; failures of later items are only reported.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	// Watch before the initial listing so files landing in between are not missed.
	if err := fsw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.Dir, err)
	}

	items, err := discovery.Discover(discovery.Options{
		SourceDir:  w.opts.Dir,
		OutputDir:  w.opts.OutputDir,
		Extensions: w.opts.Extensions,
		Logger:     w.opts.Logger,
	})
	if err != nil {
		return err
	}
	w.nextItem = len(items)
	if err := w.run(ctx, items); err != nil {
		return err
	}

	w.log.Infof("watching %s for new images (debounce %s)", w.opts.Dir, w.opts.Debounce)

	ready := make(chan string)
	done := make(chan struct{})
	defer func() {
		close(done)
		w.stopPending()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.schedule(event, ready, done)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))

		case path := <-ready:
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) schedule(event fsnotify.Event, ready chan<- string, done <-chan struct{}) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	// editors and our own writer stage through dot files
	if filepath.Base(event.Name)[0] == '.' {
		return
	}
	if !discovery.Matches(event.Name, w.opts.Extensions) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[event.Name]; exists {
		timer.Stop()
	}
	name := event.Name
	w.pending[name] = time.AfterFunc(w.opts.Debounce, func() {
		w.fire(name, ready, done)
	})
}

// fire hands a settled path to the Run loop. It gives up once done is
// closed and reports whether the path was delivered.
func (w *Watcher) fire(name string, ready chan<- string, done <-chan struct{}) bool {
	w.mu.Lock()
	delete(w.pending, name)
	w.mu.Unlock()

	select {
	case ready <- name:
		return true
	case <-done:
		return false
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		w.log.Debug("skip: gone or not a regular file", zap.String("file", path))
		return
	}

	item := discovery.NewWorkItem(w.nextItem, path, w.opts.OutputDir)
	w.nextItem++

	if err := w.run(ctx, []discovery.WorkItem{item}); err != nil {
		w.log.Error("batch failed", zap.String("file", path), zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context, items []discovery.WorkItem) error {
	res, err := w.runner.Run(ctx, items)
	if err != nil {
		return err
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(res)
	}
	return nil
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, timer := range w.pending {
		timer.Stop()
		delete(w.pending, name)
	}
}
