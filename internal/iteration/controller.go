// Package iteration drives the score, decide and revise loop for one document.
package iteration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/resume"
	"github.com/spigell/ats-tuner/internal/scoring"
)

// StopReason explains why Optimize returned.
type StopReason string

const (
	StopTargetReached  StopReason = "target_reached"
	StopMaxIterations  StopReason = "max_iterations"
	StopNoProgress     StopReason = "no_progress"
	StopRevisionFailed StopReason = "revision_failed"
	StopCanceled       StopReason = "canceled"
)

// Scorer evaluates a candidate. *scoring.Evaluator satisfies it.
type Scorer interface {
	Evaluate(doc resume.Document, target *scoring.Target) scoring.Evaluation
}

// Reviser produces a new candidate from the current one and its evaluation.
type Reviser interface {
	Revise(ctx context.Context, doc resume.Document, ev scoring.Evaluation, target *scoring.Target) (resume.Document, error)
}

// Round is one entry of the optimization history. Round 0 is the initial document.
type Round struct {
	Iteration int     `json:"iteration"`
	Score     float64 `json:"score"`
	Improved  bool    `json:"improved"`
	Error     string  `json:"error,omitempty"`
}

// Result of an optimization run.
type Result struct {
	Document      resume.Document    `json:"-"`
	Evaluation    scoring.Evaluation `json:"evaluation"`
	Initial       scoring.Evaluation `json:"initial"`
	Iterations    int                `json:"iterations"`
	StopReason    StopReason         `json:"stop_reason"`
	TargetReached bool               `json:"target_reached"`
	History       []Round            `json:"history"`

	// Err holds the revision failure when StopReason is revision_failed.
	Err error `json:"-"`
}

func (r *Result) Score() float64 { return r.Evaluation.Score }

type Controller struct {
	cfg     Config
	scorer  Scorer
	reviser Reviser
	logger  *zap.Logger
}

func NewController(cfg Config, scorer Scorer, reviser Reviser, logger *zap.Logger) (*Controller, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	if scorer == nil || reviser == nil {
		return nil, errors.New("iteration: scorer and reviser are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{cfg: cfg, scorer: scorer, reviser: reviser, logger: logger}, nil
}

func (c *Controller) Config() Config { return c.cfg }

type candidate struct {
	doc resume.Document
	ev  scoring.Evaluation
}

// Optimize runs the loop until the strategy stops it. A reviser failure
// ends the run early and keeps the best candidate. Cancellation is checked
// before every revision, never during one.
func (c *Controller) Optimize(ctx context.Context, doc resume.Document, target *scoring.Target) (*Result, error) {
	if doc == nil {
		return nil, errors.New("iteration: nil document")
	}

	initial := candidate{doc: doc, ev: c.scorer.Evaluate(doc, target)}
	best, last := initial, initial

	res := &Result{
		Initial: initial.ev,
		History: []Round{{Iteration: 0, Score: initial.ev.Score, Improved: true}},
	}
	c.logger.Info("initial score",
		zap.Float64("score", initial.ev.Score),
		zap.String("mode", initial.ev.Mode),
		zap.String("strategy", string(c.cfg.Strategy)),
	)

	nonImproving := 0
	reason := StopMaxIterations
	if initial.ev.Score >= c.cfg.TargetScore {
		reason = StopTargetReached
	}

	for i := 1; reason != StopTargetReached && i <= c.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			reason = StopCanceled
			break
		}

		// Every strategy revises from the best candidate; they differ only in
		// what is returned.
		revised, err := c.reviser.Revise(ctx, best.doc, best.ev, target)
		if err != nil {
			c.logger.Warn("revision failed, keeping best candidate",
				zap.Int("iteration", i),
				zap.Error(err),
			)
			res.History = append(res.History, Round{Iteration: i, Error: err.Error()})
			res.Err = fmt.Errorf("revision %d: %w", i, err)
			reason = StopRevisionFailed
			break
		}

		next := candidate{doc: revised, ev: c.scorer.Evaluate(revised, target)}
		improved := c.cfg.improves(next.ev.Score, best.ev.Score)
		if improved || next.ev.Score > best.ev.Score {
			best = next
		}
		if improved {
			nonImproving = 0
		} else {
			nonImproving++
		}
		last = next
		res.Iterations = i
		res.History = append(res.History, Round{Iteration: i, Score: next.ev.Score, Improved: improved})

		c.logger.Info("iteration scored",
			zap.Int("iteration", i),
			zap.Float64("score", next.ev.Score),
			zap.Float64("best", best.ev.Score),
			zap.Bool("improved", improved),
			zap.Bool("cached", next.ev.Cached),
		)

		if next.ev.Score >= c.cfg.TargetScore {
			reason = StopTargetReached
			break
		}
		if c.stalled(nonImproving) {
			reason = StopNoProgress
			break
		}
	}

	final := best
	if c.cfg.Strategy == StrategyFirstHit {
		final = last
	}

	res.Document = final.doc
	res.Evaluation = final.ev
	res.StopReason = reason
	res.TargetReached = final.ev.Score >= c.cfg.TargetScore

	c.logger.Info("optimization finished",
		zap.String("stop_reason", string(reason)),
		zap.Int("iterations", res.Iterations),
		zap.Float64("initial", initial.ev.Score),
		zap.Float64("final", final.ev.Score),
	)
	return res, nil
}

func (c *Controller) stalled(nonImproving int) bool {
	switch c.cfg.Strategy {
	case StrategyBestOf:
		return nonImproving >= c.cfg.MaxRegressions
	case StrategyPatience:
		return nonImproving >= c.cfg.PatienceLimit
	default:
		return false
	}
}
