// Package filtering narrows a batch of submissions before any provider is
// called. Every dropped submission keeps the reason it was dropped.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/intake"
	"github.com/spigell/ats-tuner/internal/scoring"
	"github.com/spigell/ats-tuner/internal/state"
)

// Filter represents a single filtering step applied to submissions.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, b *Batch) (*Batch, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
	State  *state.Store
	Target *scoring.Target
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	ExcludeFile    string
	MinTargetScore float64
	Weights        scoring.Table
	Force          bool
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Drop records why a submission left the batch.
type Drop struct {
	Submission intake.Submission
	Filter     string
	Reason     string
	// OutputPath is set when the content was already optimized.
	OutputPath string
}

// Batch is the working set of submissions.
type Batch struct {
	Items   []intake.Submission
	Dropped []Drop
}

func NewBatch(items []intake.Submission) *Batch {
	return &Batch{Items: items}
}

func (b *Batch) Len() int {
	return len(b.Items)
}

// keep retains items for which keep returns an empty reason. Order is preserved.
func (b *Batch) keep(filter string, keep func(intake.Submission) (reason, output string)) int {
	kept := b.Items[:0]
	dropped := 0
	for _, item := range b.Items {
		reason, output := keep(item)
		if reason == "" {
			kept = append(kept, item)
			continue
		}
		b.Dropped = append(b.Dropped, Drop{Submission: item, Filter: filter, Reason: reason, OutputPath: output})
		dropped++
	}
	b.Items = kept
	return dropped
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, b *Batch) (*Batch, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, info, err := step.Apply(ctx, deps, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		b = next
	}

	return b, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
