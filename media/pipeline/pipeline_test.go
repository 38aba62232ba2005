package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/compact/errors"
	"github.com/leeforge/compact/logging"
	"github.com/leeforge/compact/media/bound"
	"github.com/leeforge/compact/media/discovery"
	"github.com/leeforge/compact/media/processor"
	"github.com/leeforge/compact/media/quality"
	"github.com/leeforge/compact/media/storage"
	"github.com/leeforge/compact/metrics"
	"github.com/leeforge/compact/testkit"
)

type fixture struct {
	src string
	out string
}

func newFixture(t *testing.T) fixture {
	root := t.TempDir()
	f := fixture{src: filepath.Join(root, "src"), out: filepath.Join(root, "out")}
	require.NoError(t, os.MkdirAll(f.src, 0o755))
	return f
}

func (f fixture) pipeline(t *testing.T, mutate func(*Options)) *Pipeline {
	t.Helper()
	strategy, err := bound.NewStrategy(bound.PolicyLongestEdge, bound.NewBound(100, 100), 0)
	require.NoError(t, err)

	opts := Options{
		Codec:    processor.NewNativeCodec(processor.Bilinear),
		Strategy: strategy,
		Quality:  quality.DefaultSpec,
		Store:    storage.NewLocalProvider(f.out),
		Logger:   logging.NewNop(),
		Workers:  1,
	}
	if mutate != nil {
		mutate(&opts)
	}
	p, err := New(opts)
	require.NoError(t, err)
	return p
}

func (f fixture) discover(t *testing.T) []discovery.WorkItem {
	t.Helper()
	items, err := discovery.Discover(discovery.Options{SourceDir: f.src, OutputDir: f.out, Logger: logging.NewNop()})
	require.NoError(t, err)
	return items
}

func TestRunIsolatesCorruptItem(t *testing.T) {
	f := newFixture(t)
	testkit.WriteJPEG(t, f.src, "a.jpg", 200, 100)
	testkit.WriteCorrupt(t, f.src, "b.jpg")
	testkit.WritePNG(t, f.src, "c.png", 50, 40)

	res, err := f.pipeline(t, nil).Run(context.Background(), f.discover(t))
	require.NoError(t, err)
	require.Len(t, res.Items, 3)

	assert.True(t, res.Items[0].OK())
	assert.False(t, res.Items[1].OK())
	assert.True(t, res.Items[2].OK())

	assert.Equal(t, StageDecoding, res.Items[1].Stage)
	assert.True(t, errors.Is(res.Items[1].Err, apperrors.ErrDecode))
	assert.Equal(t, apperrors.ErrorTypeDecode, res.Items[1].ErrorType)

	assert.FileExists(t, filepath.Join(f.out, "a.jpg"))
	assert.NoFileExists(t, filepath.Join(f.out, "b.jpg"))
	assert.NoFileExists(t, filepath.Join(f.out, "b.jpg.tmp"))
	assert.FileExists(t, filepath.Join(f.out, "c.png"))

	ok, failed := res.Summary()
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
	assert.NotEmpty(t, res.RunID)
}

func TestRunResizesAndReportsDimensions(t *testing.T) {
	f := newFixture(t)
	testkit.WriteJPEG(t, f.src, "wide.jpg", 200, 100)
	testkit.WritePNG(t, f.src, "small.png", 50, 40)

	res, err := f.pipeline(t, nil).Run(context.Background(), f.discover(t))
	require.NoError(t, err)

	small, wide := res.Items[0], res.Items[1]
	require.True(t, wide.OK(), wide.Error)
	assert.Equal(t, bound.Dimensions{Width: 200, Height: 100}, wide.Before)
	assert.Equal(t, bound.Dimensions{Width: 100, Height: 50}, wide.After)
	assert.Equal(t, StageWritten, wide.Stage)
	require.NotNil(t, wide.Params)
	assert.Equal(t, 75, wide.Params.Quality)
	assert.Positive(t, wide.BytesOut)

	cfg := testkit.DecodeConfig(t, wide.Output)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)

	require.True(t, small.OK(), small.Error)
	assert.Equal(t, small.Before, small.After)
}

func TestRunPreservesOrderWithWorkers(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("img%02d.png", i)
		if i%3 == 1 {
			testkit.WriteCorrupt(t, f.src, name)
			continue
		}
		testkit.WritePNG(t, f.src, name, 30+i, 20)
	}

	items := f.discover(t)
	res, err := f.pipeline(t, func(o *Options) { o.Workers = 4 }).Run(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, res.Items, len(items))

	for i, it := range res.Items {
		assert.Equal(t, items[i].Name, it.Name)
		assert.Equal(t, i, it.Index)
		assert.Equal(t, i%3 != 1, it.OK(), it.Name)
	}
}

func TestRunUnsupportedFormatAndQuality(t *testing.T) {
	f := newFixture(t)
	gif := testkit.WriteFile(t, f.src, "anim.gif", []byte("GIF89a"))
	jpg := testkit.WriteJPEG(t, f.src, "a.jpg", 10, 10)

	items := []discovery.WorkItem{
		discovery.NewWorkItem(0, gif, f.out),
		discovery.NewWorkItem(1, jpg, f.out),
	}

	res, err := f.pipeline(t, nil).Run(context.Background(), items[:1])
	require.NoError(t, err)
	assert.True(t, errors.Is(res.Items[0].Err, apperrors.ErrUnsupportedFormat))

	lossless := f.pipeline(t, func(o *Options) { o.Quality = quality.Spec{Tier: quality.TierLossless} })
	res, err = lossless.Run(context.Background(), items[1:])
	require.NoError(t, err)
	assert.True(t, errors.Is(res.Items[0].Err, apperrors.ErrUnsupportedQuality))
	assert.Equal(t, StageEncoding, res.Items[0].Stage)
}

func TestRunOutputUnavailableIsFatal(t *testing.T) {
	f := newFixture(t)
	testkit.WriteJPEG(t, f.src, "a.jpg", 10, 10)
	require.NoError(t, os.WriteFile(f.out, []byte("occupied"), 0o644))

	res, err := f.pipeline(t, nil).Run(context.Background(), f.discover(t))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, apperrors.ErrOutputUnavailable))
}

func TestRunRefusesToOverwriteSource(t *testing.T) {
	f := newFixture(t)
	src := testkit.WriteJPEG(t, f.src, "a.jpg", 200, 100)
	original, err := os.ReadFile(src)
	require.NoError(t, err)

	items, err := discovery.Discover(discovery.Options{SourceDir: f.src, OutputDir: f.src, Logger: logging.NewNop()})
	require.NoError(t, err)
	require.Len(t, items, 1)

	p := f.pipeline(t, func(o *Options) { o.Store = storage.NewLocalProvider(f.src) })
	res, err := p.Run(context.Background(), items)
	require.NoError(t, err)

	it := res.Items[0]
	assert.False(t, it.OK())
	assert.Equal(t, StageEncoding, it.Stage)
	assert.True(t, errors.Is(it.Err, apperrors.ErrOutputUnavailable))
	assert.Empty(t, it.Output)

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, original, after, "source must be left untouched")
	assert.NoFileExists(t, src+".tmp")
}

func TestNewRequiresCodecAndStore(t *testing.T) {
	f := newFixture(t)

	_, err := New(Options{Store: storage.NewLocalProvider(f.out)})
	assert.Error(t, err)

	_, err = New(Options{Codec: processor.NewNativeCodec(processor.Bilinear)})
	assert.Error(t, err)

	p, err := New(Options{
		Codec:  processor.NewNativeCodec(processor.Bilinear),
		Store:  storage.NewLocalProvider(f.out),
		Logger: logging.NewNop(),
	})
	require.NoError(t, err)

	testkit.WritePNG(t, f.src, "a.png", 300, 200)
	res, err := p.Run(context.Background(), f.discover(t))
	require.NoError(t, err)
	assert.Equal(t, bound.PolicyLongestEdge, res.Policy)
	assert.Equal(t, bound.Dimensions{Width: 300, Height: 200}, res.Items[0].After)
}

func TestRunEmptyWorkSet(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline(t, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.DirExists(t, f.out)
}

func TestRunCancelledMarksItemsDiscovered(t *testing.T) {
	f := newFixture(t)
	testkit.WriteJPEG(t, f.src, "a.jpg", 10, 10)
	testkit.WriteJPEG(t, f.src, "b.jpg", 10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.pipeline(t, func(o *Options) { o.Workers = 2 }).Run(ctx, f.discover(t))
	require.NoError(t, err)
	for _, it := range res.Items {
		assert.Equal(t, StageDiscovered, it.Stage)
		assert.ErrorIs(t, it.Err, context.Canceled)
	}
}

func TestRunMirrorsOutputs(t *testing.T) {
	f := newFixture(t)
	testkit.WriteJPEG(t, f.src, "a.jpg", 10, 10)
	mirror := testkit.NewMockMirror()

	res, err := f.pipeline(t, func(o *Options) { o.Mirror = mirror }).Run(context.Background(), f.discover(t))
	require.NoError(t, err)
	require.True(t, res.Items[0].OK(), res.Items[0].Error)
	assert.Equal(t, StageMirrored, res.Items[0].Stage)
	assert.Equal(t, "mock://a.jpg", res.Items[0].URL)

	uploads := mirror.Uploads()
	require.Len(t, uploads, 1)
	written, err := os.ReadFile(res.Items[0].Output)
	require.NoError(t, err)
	assert.Equal(t, written, uploads[0].Data)
}

func TestRunMirrorFailureKeepsLocalFile(t *testing.T) {
	f := newFixture(t)
	testkit.WriteJPEG(t, f.src, "a.jpg", 10, 10)
	mirror := testkit.NewMockMirror()
	mirror.Err = errors.New("bucket gone")

	res, err := f.pipeline(t, func(o *Options) { o.Mirror = mirror }).Run(context.Background(), f.discover(t))
	require.NoError(t, err)
	assert.Equal(t, StageMirroring, res.Items[0].Stage)
	assert.True(t, errors.Is(res.Items[0].Err, apperrors.ErrMirror))
	assert.FileExists(t, filepath.Join(f.out, "a.jpg"))
}

func TestRunRecordsMetrics(t *testing.T) {
	f := newFixture(t)
	testkit.WriteJPEG(t, f.src, "a.jpg", 10, 10)
	testkit.WriteCorrupt(t, f.src, "b.jpg")
	rec := metrics.NewBatchRecorder(nil)

	p := f.pipeline(t, func(o *Options) { o.Recorder = rec })
	res, err := p.Run(context.Background(), f.discover(t))
	require.NoError(t, err)

	c := rec.Collector()
	assert.Equal(t, 1.0, c.Counter(metrics.ItemsTotal, map[string]string{"outcome": metrics.OutcomeSuccess}))
	assert.Equal(t, 1.0, c.Counter(metrics.ItemsTotal, map[string]string{"outcome": metrics.OutcomeFailure, "error": "decode"}))
	assert.NotEmpty(t, res.Metrics)

	// A second batch on the same pipeline starts from zero.
	res, err = p.Run(context.Background(), f.discover(t)[:1])
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Counter(metrics.ItemsTotal, map[string]string{"outcome": metrics.OutcomeSuccess}))
	assert.Zero(t, c.Counter(metrics.ItemsTotal, map[string]string{"outcome": metrics.OutcomeFailure, "error": "decode"}))
	assert.NotEmpty(t, res.Metrics)
}

func TestRunUsesRunIDFromContext(t *testing.T) {
	f := newFixture(t)
	ctx := logging.SetRunID(context.Background(), "run-1")

	res, err := f.pipeline(t, nil).Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
}

func TestPrintReport(t *testing.T) {
	res := &BatchResult{
		Duration: 1500 * time.Millisecond,
		Items: []ItemResult{
			{
				Name:     "a.jpg",
				Before:   bound.Dimensions{Width: 200, Height: 100},
				After:    bound.Dimensions{Width: 100, Height: 50},
				Params:   &quality.EncoderParams{Format: quality.FormatJPEG, Quality: 75},
				BytesOut: 2048,
			},
			{Name: "b.jpg", Stage: StageDecoding, Err: apperrors.NewDecode("b.jpg", errors.New("unexpected EOF"))},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintReport(&buf, res))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[OK] a.jpg 200x100 -> 100x50 q=75 size=2.0KB", lines[0])
	assert.Equal(t, "[ERROR] b.jpg decoding: decode failed: unexpected EOF", lines[1])
	assert.Equal(t, "1 succeeded, 1 failed (2 total) in 1.5s", lines[2])
}
