// Package pipeline processes submissions end to end: enhancement,
// optimization, output and state bookkeeping.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/ai"
	"github.com/spigell/ats-tuner/internal/ai/prompts"
	"github.com/spigell/ats-tuner/internal/intake"
	"github.com/spigell/ats-tuner/internal/iteration"
	"github.com/spigell/ats-tuner/internal/logger"
	"github.com/spigell/ats-tuner/internal/resume"
	"github.com/spigell/ats-tuner/internal/scoring"
	"github.com/spigell/ats-tuner/internal/state"
)

// Resolver hands out agents by role. *ai.Registry satisfies it.
type Resolver interface {
	Resolve(role string) (ai.Agent, error)
	Has(role string) bool
}

// Writer persists optimized documents. *output.Writer satisfies it.
type Writer interface {
	Write(source string, doc resume.Document) (string, error)
	WriteReport(source string, report any) (string, error)
}

// Options configure a Processor.
type Options struct {
	Agents    Resolver
	Scorer    *scoring.Evaluator
	Iteration iteration.Config
	State     *state.Store
	Output    Writer
	Validator *resume.Validator
	Target    *scoring.Target
	Goals     []string
	Logger    *zap.Logger
}

// Processor runs one submission at a time. It holds no per-document state
// and is shared by all workers.
type Processor struct {
	opts       Options
	controller *iteration.Controller
	logger     *zap.Logger
}

func NewProcessor(opts Options) (*Processor, error) {
	if opts.Agents == nil || opts.Scorer == nil || opts.State == nil || opts.Output == nil {
		return nil, errors.New("pipeline: agents, scorer, state and output are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	reviserAgent, err := opts.Agents.Resolve(ai.RoleReviser)
	if err != nil {
		return nil, err
	}
	reviser := iteration.NewAgentReviser(reviserAgent, opts.Validator, opts.Goals)

	controller, err := iteration.NewController(opts.Iteration, opts.Scorer, reviser, opts.Logger)
	if err != nil {
		return nil, err
	}

	return &Processor{opts: opts, controller: controller, logger: opts.Logger}, nil
}

// Report is written next to every optimized document.
type Report struct {
	RunID      string                   `json:"run_id,omitempty"`
	Source     string                   `json:"source"`
	Hash       string                   `json:"hash"`
	Target     *scoring.Target          `json:"target,omitempty"`
	Result     *iteration.Result        `json:"result"`
	Advice     []scoring.Recommendation `json:"recommendations,omitempty"`
	FinishedAt time.Time                `json:"finished_at"`
}

// Process optimizes sub unless its content is already recorded. The state
// lookup happens before any provider call.
func (p *Processor) Process(ctx context.Context, runID string, sub intake.Submission) Outcome {
	started := time.Now()
	hash := sub.Hash()
	log := logger.WithDocument(p.logger, sub.Path, hash)

	if err := ctx.Err(); err != nil {
		return failed(sub.Path, hash, "canceled", err)
	}

	if entry, ok := p.opts.State.Lookup(hash); ok {
		log.Info("already processed", zap.String("output", entry.OutputPath))
		return Outcome{Path: sub.Path, Hash: hash, Status: StatusSkipped, Reason: "already processed", OutputPath: entry.OutputPath}
	}

	doc, err := p.structure(ctx, sub)
	if err != nil {
		log.Error("enhancement failed", zap.Error(err))
		return failed(sub.Path, hash, "enhancement failed: "+err.Error(), err)
	}
	if err := p.opts.Validator.Validate(doc); err != nil {
		log.Error("structured resume is invalid", zap.Error(err))
		return failed(sub.Path, hash, err.Error(), err)
	}

	result, err := p.controller.Optimize(ctx, doc, p.opts.Target)
	if err != nil {
		return failed(sub.Path, hash, "optimization failed: "+err.Error(), err)
	}
	if result.StopReason == iteration.StopCanceled {
		log.Warn("optimization canceled, nothing recorded")
		return failed(sub.Path, hash, "canceled", ctx.Err())
	}

	outputPath, err := p.opts.Output.Write(sub.Path, result.Document)
	if err != nil {
		log.Error("write output", zap.Error(err))
		return failed(sub.Path, hash, "write output: "+err.Error(), err)
	}

	reportPath, err := p.opts.Output.WriteReport(sub.Path, Report{
		RunID:      runID,
		Source:     sub.Path,
		Hash:       hash,
		Target:     p.opts.Target,
		Result:     result,
		Advice:     scoring.Recommendations(result.Evaluation.Reports()...),
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Warn("write report", zap.Error(err))
	}

	if err := p.opts.State.Record(hash, outputPath, result.Score()); err != nil {
		log.Error("record state", zap.Error(err))
		return failed(sub.Path, hash, "record state: "+err.Error(), err)
	}

	out := Outcome{
		Path:         sub.Path,
		Hash:         hash,
		Status:       StatusCompleted,
		OutputPath:   outputPath,
		ReportPath:   reportPath,
		InitialScore: result.Initial.Score,
		FinalScore:   result.Score(),
		Iterations:   result.Iterations,
		StopReason:   result.StopReason,
		Duration:     time.Since(started),
	}
	if !result.TargetReached {
		out.Status = StatusCompletedWithWarnings
		out.Warnings = append(out.Warnings, fmt.Sprintf("target score %.0f not reached", p.controller.Config().TargetScore))
	}
	if result.Err != nil {
		out.Status = StatusCompletedWithWarnings
		out.Warnings = append(out.Warnings, result.Err.Error())
	}

	log.Info("document processed",
		zap.String("status", string(out.Status)),
		zap.Float64("initial_score", out.InitialScore),
		zap.Float64("final_score", out.FinalScore),
		zap.Int("iterations", out.Iterations),
		zap.Duration("duration", out.Duration),
	)
	return out
}

// structure returns the submission as a resume document, asking the
// enhancer when the file holds plain text.
func (p *Processor) structure(ctx context.Context, sub intake.Submission) (resume.Document, error) {
	if sub.Structured != nil {
		return sub.Structured.Clone(), nil
	}

	enhancer, err := p.opts.Agents.Resolve(ai.RoleEnhancer)
	if err != nil {
		return nil, err
	}

	description := ""
	if p.opts.Target != nil {
		description = p.opts.Target.Description
	}

	out, err := enhancer.GenerateStructured(ctx, prompts.Enhance(sub.Text, description))
	if err != nil {
		return nil, err
	}
	return resume.Document(out), nil
}

// PrepareTarget condenses the target description with the job summarizer
// when that role is configured. Any failure keeps the original description.
func PrepareTarget(ctx context.Context, agents Resolver, target *scoring.Target, log *zap.Logger) *scoring.Target {
	if target == nil || agents == nil || !agents.Has(ai.RoleJobSummarizer) {
		return target
	}
	if log == nil {
		log = zap.NewNop()
	}

	agent, err := agents.Resolve(ai.RoleJobSummarizer)
	if err != nil {
		return target
	}

	summary, err := agent.GenerateText(ctx, prompts.SummarizeJob(target.Description))
	if err != nil {
		log.Warn("job summary failed, using full description", zap.Error(err))
		return target
	}

	prepared := *target
	prepared.Description = summary
	return &prepared
}
