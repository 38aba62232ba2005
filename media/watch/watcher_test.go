package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeforge/compact/logging"
	"github.com/leeforge/compact/media/discovery"
	"github.com/leeforge/compact/media/pipeline"
	"github.com/leeforge/compact/testkit"
)

type recordingRunner struct {
	mu      sync.Mutex
	batches [][]discovery.WorkItem
	err     error
}

func (r *recordingRunner) Run(_ context.Context, items []discovery.WorkItem) (*pipeline.BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.batches = append(r.batches, items)
	res := &pipeline.BatchResult{}
	for _, it := range items {
		res.Items = append(res.Items, pipeline.ItemResult{Index: it.Index, Name: it.Name})
	}
	return res, nil
}

func (r *recordingRunner) snapshot() [][]discovery.WorkItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]discovery.WorkItem(nil), r.batches...)
}

func TestWatcherProcessesNewImages(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	testkit.WriteJPEG(t, dir, "a.jpg", 8, 8)

	runner := &recordingRunner{}
	var results atomic.Int32
	w := New(runner, Options{
		Dir:       dir,
		OutputDir: out,
		Debounce:  50 * time.Millisecond,
		Logger:    logging.NewNop(),
		OnResult:  func(*pipeline.BatchResult) { results.Add(1) },
	})

	ctx, cancel := context.WithCancel(testkit.Context(t, 10*time.Second))
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, testkit.Eventually(func() bool { return len(runner.snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond))
	initial := runner.snapshot()[0]
	require.Len(t, initial, 1)
	assert.Equal(t, "a.jpg", initial[0].Name)

	testkit.WriteFile(t, dir, "notes.txt", []byte("skip me"))
	testkit.WritePNG(t, dir, "b.png", 8, 8)

	require.NoError(t, testkit.Eventually(func() bool { return len(runner.snapshot()) >= 2 }, 5*time.Second, 10*time.Millisecond))
	require.NoError(t, testkit.Eventually(func() bool { return results.Load() >= 2 }, 5*time.Second, 10*time.Millisecond))

	batches := runner.snapshot()
	second := batches[1]
	require.Len(t, second, 1)
	assert.Equal(t, "b.png", second[0].Name)
	assert.Equal(t, 1, second[0].Index)
	assert.Equal(t, filepath.Join(out, "b.png"), second[0].Output)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}

	for _, b := range runner.snapshot() {
		for _, it := range b {
			assert.NotEqual(t, "notes.txt", it.Name)
		}
	}
}

func TestWatcherInitialBatchErrorIsReturned(t *testing.T) {
	boom := errors.New("output unavailable")
	w := New(&recordingRunner{err: boom}, Options{Dir: t.TempDir(), Logger: logging.NewNop()})

	err := w.Run(testkit.Context(t, 5*time.Second))
	assert.ErrorIs(t, err, boom)
}

func TestWatcherMissingDir(t *testing.T) {
	w := New(&recordingRunner{}, Options{Dir: filepath.Join(t.TempDir(), "nope"), Logger: logging.NewNop()})

	assert.Error(t, w.Run(testkit.Context(t, 5*time.Second)))
}

func TestFireGivesUpAfterRunExits(t *testing.T) {
	w := New(&recordingRunner{}, Options{Dir: t.TempDir(), Logger: logging.NewNop()})
	ready := make(chan string)
	done := make(chan struct{})

	w.mu.Lock()
	w.pending["a.png"] = time.NewTimer(time.Hour)
	w.mu.Unlock()

	close(done)
	delivered := make(chan bool, 1)
	go func() { delivered <- w.fire("a.png", ready, done) }()

	select {
	case ok := <-delivered:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("fire blocked with nobody receiving")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Empty(t, w.pending)
}

func TestFireDeliversWhileRunning(t *testing.T) {
	w := New(&recordingRunner{}, Options{Dir: t.TempDir(), Logger: logging.NewNop()})
	ready := make(chan string, 1)

	assert.True(t, w.fire("a.png", ready, make(chan struct{})))
	assert.Equal(t, "a.png", <-ready)
}
