package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ats-tuner/internal/filtering"
	"github.com/spigell/ats-tuner/internal/intake"
	"github.com/spigell/ats-tuner/internal/logger"
)

// Pipeline runs batches of submissions through filtering and a bounded
// worker pool.
type Pipeline struct {
	processor   *Processor
	filters     []filtering.Filter
	filterCfg   *filtering.Config
	filterDeps  filtering.Deps
	concurrency int
	logger      *zap.Logger
}

func New(processor *Processor, filters []filtering.Filter, cfg *filtering.Config, deps filtering.Deps, concurrency int, logger *zap.Logger) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &filtering.Config{}
	}
	return &Pipeline{
		processor:   processor,
		filters:     filters,
		filterCfg:   cfg,
		filterDeps:  deps,
		concurrency: concurrency,
		logger:      logger,
	}
}

// RunFolder processes every candidate file in dir.
func (p *Pipeline) RunFolder(ctx context.Context, dir string) (Summary, error) {
	paths, err := intake.Scan(dir)
	if err != nil {
		return Summary{}, err
	}
	return p.RunPaths(ctx, paths)
}

// RunPaths loads, filters and processes paths. Errors returned here are
// batch level; per-document failures are reported as outcomes.
func (p *Pipeline) RunPaths(ctx context.Context, paths []string) (Summary, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String(logger.FieldRunID, runID))
	log.Info("batch started", zap.Int("files", len(paths)), zap.Int("concurrency", p.concurrency))

	var outcomes []Outcome
	var subs []intake.Submission
	for _, path := range paths {
		sub, err := intake.Load(path)
		if err != nil {
			log.Warn("cannot read submission", zap.String("path", path), zap.Error(err))
			outcomes = append(outcomes, failed(path, "", err.Error(), err))
			continue
		}
		subs = append(subs, sub)
	}

	batch, err := filtering.Run(ctx, p.filterCfg, p.filterDeps, p.filters, filtering.NewBatch(subs))
	if err != nil {
		return Summary{}, err
	}
	for _, d := range batch.Dropped {
		outcomes = append(outcomes, Outcome{
			Path:       d.Submission.Path,
			Hash:       d.Submission.Hash(),
			Status:     StatusSkipped,
			Reason:     d.Filter + ": " + d.Reason,
			OutputPath: d.OutputPath,
		})
	}

	outcomes = append(outcomes, p.Process(ctx, runID, batch.Items)...)

	summary := summarize(runID, outcomes)
	log.Info("batch finished",
		zap.Int("completed", summary.Counts[StatusCompleted]),
		zap.Int("completed_with_warnings", summary.Counts[StatusCompletedWithWarnings]),
		zap.Int("failed", summary.Counts[StatusFailed]),
		zap.Int("skipped", summary.Counts[StatusSkipped]),
	)
	return summary, nil
}

// Process runs subs on at most concurrency workers. A failing document
// never stops its siblings. Once ctx is done, documents that have not
// started are reported as canceled.
func (p *Pipeline) Process(ctx context.Context, runID string, subs []intake.Submission) []Outcome {
	outcomes := make([]Outcome, len(subs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, sub := range subs {
		if err := ctx.Err(); err != nil {
			outcomes[i] = failed(sub.Path, sub.Hash(), "canceled", err)
			continue
		}
		g.Go(func() error {
			outcomes[i] = p.processor.Process(ctx, runID, sub)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
