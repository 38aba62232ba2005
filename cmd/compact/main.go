// Command compact shrinks and recompresses the images of a directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/leeforge/compact/config"
	apperrors "github.com/leeforge/compact/errors"
	"github.com/leeforge/compact/json"
	"github.com/leeforge/compact/logging"
	"github.com/leeforge/compact/media/discovery"
	"github.com/leeforge/compact/media/pipeline"
	"github.com/leeforge/compact/media/processor"
	"github.com/leeforge/compact/media/storage"
	"github.com/leeforge/compact/media/watch"
	"github.com/leeforge/compact/metrics"
)

const (
	exitOK      = 0
	exitFailure = 1
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("compact", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: compact [flags] [filename]\n\nCompress one image, or every image in --dir, into --output.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "error: expected at most one filename, got %d\n", fs.NArg())
		fs.Usage()
		return exitFailure
	}

	configFile, _ := fs.GetString("config")
	cfg, err := config.Load(config.Options{File: configFile, Flags: fs})
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", apperrors.Format(err))
		return exitFailure
	}
	cfg.File = fs.Arg(0)

	resolved, err := cfg.Resolve()
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", apperrors.Format(err))
		return exitFailure
	}
	if cfg.Watch && cfg.File != "" {
		fmt.Fprintln(stderr, "error: --watch cannot be combined with a filename")
		return exitFailure
	}

	logging.SetTerminalOutput(stderr)
	log := logging.Init(cfg.Log).Named("compact")
	defer logging.Sync()

	ctx = logging.SetRunID(ctx, uuid.NewString())
	log = logging.WithContext(log, ctx)

	var mirror storage.Mirror
	if cfg.Storage.OSS.Enabled() {
		oss, err := storage.NewOSSProvider(cfg.Storage.OSS)
		if err != nil {
			log.Error("mirror unavailable", zap.Error(err))
			return exitFailure
		}
		mirror = oss
	}

	p, err := pipeline.New(pipeline.Options{
		Codec:    processor.NewNativeCodec(resolved.Interpolation),
		Strategy: resolved.Strategy,
		Quality:  resolved.Quality,
		Store:    storage.NewLocalProvider(cfg.Output),
		Mirror:   mirror,
		Logger:   logging.Global(),
		Recorder: metrics.NewBatchRecorder(nil),
		Workers:  cfg.Workers,
	})
	if err != nil {
		log.Error("pipeline unavailable", zap.Error(err))
		return exitFailure
	}

	if cfg.Watch {
		w := watch.New(p, watch.Options{
			Dir:        cfg.SourceDir,
			OutputDir:  cfg.Output,
			Extensions: cfg.Extensions,
			Logger:     logging.Global(),
			OnResult: func(res *pipeline.BatchResult) {
				_ = pipeline.PrintReport(stdout, res)
			},
		})
		if err := w.Run(ctx); err != nil {
			log.Error("watch stopped", zap.String("error", apperrors.Format(err)))
			return exitFailure
		}
		return exitOK
	}

	items, err := discovery.Discover(discovery.Options{
		File:       cfg.File,
		SourceDir:  cfg.SourceDir,
		OutputDir:  cfg.Output,
		Extensions: cfg.Extensions,
		Logger:     logging.Global(),
	})
	if err != nil {
		log.Error("cannot enumerate source", zap.String("error", apperrors.Format(err)))
		return exitFailure
	}

	res, err := p.Run(ctx, items)
	if err != nil {
		log.Error("batch aborted", zap.String("error", apperrors.Format(err)))
		return exitFailure
	}

	if err := pipeline.PrintReport(stdout, res); err != nil {
		log.Warnf("failed to print report: %v", err)
	}
	if cfg.Report != "" {
		if err := json.WriteFile(cfg.Report, res); err != nil {
			log.Error("failed to write report", zap.String("path", cfg.Report), zap.Error(err))
			return exitFailure
		}
		log.Info("report written", zap.String("path", cfg.Report))
	}

	if _, failed := res.Summary(); failed > 0 && cfg.Strict {
		return exitFailure
	}
	return exitOK
}
