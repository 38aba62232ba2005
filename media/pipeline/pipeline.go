package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leeforge/compact/concurrency"
	apperrors "github.com/leeforge/compact/errors"
	"github.com/leeforge/compact/logging"
	"github.com/leeforge/compact/media/bound"
	"github.com/leeforge/compact/media/discovery"
	"github.com/leeforge/compact/media/processor"
	"github.com/leeforge/compact/media/quality"
	"github.com/leeforge/compact/media/storage"
	"github.com/leeforge/compact/metrics"
)

// Options wires a Pipeline. Codec and Store are required.
type Options struct {
	Codec processor.Codec
	// Strategy defaults to the unbounded longest-edge policy.
	Strategy bound.Strategy
	// Mapper defaults to quality.DefaultMapper().
	Mapper  *quality.Mapper
	Quality quality.Spec
	Store   *storage.LocalProvider
	// Mirror is optional.
	Mirror   storage.Mirror
	Logger   logging.Logger
	Recorder *metrics.BatchRecorder
	// Workers <= 0 uses one worker per CPU; 1 runs items sequentially.
	Workers int
}

// Pipeline turns WorkItems into compressed outputs.
type Pipeline struct {
	codec    processor.Codec
	strategy bound.Strategy
	mapper   quality.Mapper
	quality  quality.Spec
	store    *storage.LocalProvider
	mirror   storage.Mirror
	log      logging.Logger
	recorder *metrics.BatchRecorder
	workers  int
}

func New(opts Options) (*Pipeline, error) {
	if opts.Codec == nil {
		return nil, apperrors.New(apperrors.ErrorTypeUnknown, "pipeline requires a codec")
	}
	if opts.Store == nil {
		return nil, apperrors.New(apperrors.ErrorTypeUnknown, "pipeline requires an output store")
	}
	if opts.Strategy == nil {
		opts.Strategy = bound.LongestEdge{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Global()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NewBatchRecorder(nil)
	}
	if opts.Workers <= 0 {
		opts.Workers = concurrency.DefaultSize()
	}
	if opts.Quality.Tier == "" {
		opts.Quality = quality.DefaultSpec
	}
	mapper := quality.DefaultMapper()
	if opts.Mapper != nil {
		mapper = *opts.Mapper
	}
	return &Pipeline{
		codec:    opts.Codec,
		strategy: opts.Strategy,
		mapper:   mapper,
		quality:  opts.Quality,
		store:    opts.Store,
		mirror:   opts.Mirror,
		log:      opts.Logger.Named("pipeline"),
		recorder: opts.Recorder,
		workers:  opts.Workers,
	}, nil
}

// Workers returns the configured parallelism.
func (p *Pipeline) Workers() int {
	return p.workers
}

// Run processes items and returns their results in item order. Only a
// failure to materialize the output directory is returned as an error;
// per-item failures are recorded in the result.
func (p *Pipeline) Run(ctx context.Context, items []discovery.WorkItem) (*BatchResult, error) {
	runID := logging.GetRunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.SetRunID(ctx, runID)
	}
	log := logging.WithContext(p.log, ctx)
	ctx = logging.ToContext(ctx, log)

	if err := p.store.EnsureBase(); err != nil {
		log.Error("output directory unavailable", zap.String("path", p.store.BasePath()), zap.Error(err))
		return nil, err
	}

	// Metrics in a BatchResult cover that batch only.
	p.recorder.Collector().Reset()

	result := &BatchResult{
		RunID:     runID,
		StartedAt: time.Now(),
		Policy:    p.strategy.Policy(),
		Quality:   p.quality.String(),
		Items:     make([]ItemResult, len(items)),
	}

	log.Info("batch started",
		zap.Int("items", len(items)),
		zap.Int("workers", p.workers),
		zap.String("policy", string(result.Policy)),
		zap.String("quality", result.Quality),
		zap.String("output", p.store.BasePath()))

	concurrency.ForEach(ctx, p.workers, len(items), func(ctx context.Context, i int) {
		result.Items[i] = p.process(ctx, items[i])
	})

	result.Duration = time.Since(result.StartedAt)
	result.Metrics = p.recorder.Collector().Snapshot()

	ok, failed := result.Summary()
	log.Info("batch finished",
		zap.Int("succeeded", ok),
		zap.Int("failed", failed),
		zap.Duration("duration", result.Duration),
		zap.Float64("ratio", p.recorder.Ratio()))

	return result, nil
}

// process runs one item to completion. It never panics out and never returns
// an error: every failure is captured in the ItemResult.
func (p *Pipeline) process(ctx context.Context, item discovery.WorkItem) (res ItemResult) {
	start := time.Now()
	res = ItemResult{
		Index:  item.Index,
		Name:   item.Name,
		Source: item.Source,
		Stage:  StageDiscovered,
	}
	log := logging.FromContext(ctx).With(zap.String("file", item.Name))

	defer func() {
		if r := recover(); r != nil {
			res.fail(res.Stage, apperrors.New(apperrors.ErrorTypeUnknown, "panic while processing").
				WithDetail("file", item.Name).
				WithDetail("panic", r))
		}
		res.Duration = time.Since(start)
		if res.OK() {
			p.recorder.RecordOutcome(metrics.OutcomeSuccess, "")
			p.recorder.RecordBytes(res.BytesIn, res.BytesOut)
			log.Info("compacted",
				zap.Stringer("before", res.Before),
				zap.Stringer("after", res.After),
				zap.Int64("bytes", res.BytesOut))
			return
		}
		p.recorder.RecordOutcome(metrics.OutcomeFailure, string(res.ErrorType))
		log.WithError(res.Err).Warn("item failed", zap.String("stage", string(res.Stage)))
	}()

	if err := ctx.Err(); err != nil {
		res.fail(StageDiscovered, err)
		return res
	}

	params, err := p.mapper.Params(p.quality, item.Format)
	if err != nil {
		res.fail(StageEncoding, err)
		return res
	}

	res.Stage = StageDecoding
	t := time.Now()
	img, before, err := p.codec.Decode(item.Source)
	p.recorder.RecordStage(string(StageDecoding), time.Since(t))
	if err != nil {
		res.fail(StageDecoding, err)
		return res
	}
	res.Before = before
	res.BytesIn = fileSize(item.Source)

	res.Stage = StageResizing
	t = time.Now()
	target := p.strategy.Target(before)
	img = p.codec.Resize(img, target)
	p.recorder.RecordStage(string(StageResizing), time.Since(t))
	res.After = target

	res.Stage = StageEncoding
	if sameFile(item.Source, p.store.Path(item.Name)) {
		res.fail(StageEncoding, apperrors.NewOutputUnavailable(p.store.BasePath(), nil).
			WithMessage("output would overwrite its source").
			WithDetail("file", item.Source))
		return res
	}
	t = time.Now()
	output, size, err := p.store.Write(ctx, item.Name, func(w io.Writer) error {
		if err := p.codec.Encode(w, img, params); err != nil {
			if apperrors.TypeOf(err) == apperrors.ErrorTypeUnknown {
				return apperrors.NewEncode(item.Source, err)
			}
			return err
		}
		return nil
	})
	p.recorder.RecordStage(string(StageEncoding), time.Since(t))
	if err != nil {
		res.fail(StageEncoding, err)
		return res
	}
	res.Stage = StageWritten
	res.Output = output
	res.BytesOut = size
	res.Params = &params

	if p.mirror != nil {
		res.Stage = StageMirroring
		url, err := p.upload(ctx, item.Name)
		if err != nil {
			res.fail(StageMirroring, err)
			return res
		}
		res.Stage = StageMirrored
		res.URL = url
	}

	return res
}

func (p *Pipeline) upload(ctx context.Context, name string) (string, error) {
	t := time.Now()
	defer func() { p.recorder.RecordStage(string(StageMirroring), time.Since(t)) }()

	f, err := p.store.Open(name)
	if err != nil {
		return "", apperrors.NewMirror(name, err)
	}
	defer f.Close()

	url, err := p.mirror.Upload(ctx, f, name)
	if err != nil {
		if apperrors.TypeOf(err) != apperrors.ErrorTypeMirror {
			return "", apperrors.NewMirror(name, err)
		}
		return "", err
	}
	return url, nil
}

// sameFile reports whether a and b name the same file, either by absolute
// path or, when both exist, by identity.
func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
