package filtering

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/intake"
	"github.com/spigell/ats-tuner/internal/scoring"
)

const forceFlagSetMsg = "force flag is set"

// Default returns the standard filter chain in execution order.
func Default() []Filter {
	return []Filter{
		NewDuplicates(),
		NewAlreadyProcessed(),
		NewExcludeFile(),
		NewTargetQuality(),
	}
}

type duplicatesFilter struct{}

// NewDuplicates creates a filter that keeps only the first submission of
// identical content.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return "duplicate_content" }

func (f *duplicatesFilter) Disable(string) {}

func (f *duplicatesFilter) IsEnabled() bool { return true }

func (f *duplicatesFilter) Validate(*Config) error { return nil }

func (f *duplicatesFilter) Apply(_ context.Context, deps Deps, b *Batch) (*Batch, Step, error) {
	initial := b.Len()
	first := map[string]string{}

	dropped := b.keep(f.Name(), func(s intake.Submission) (string, string) {
		hash := s.Hash()
		if prev, ok := first[hash]; ok {
			return "same content as " + filepath.Base(prev), ""
		}
		first[hash] = s.Path
		return "", ""
	})

	if deps.Logger != nil && dropped > 0 {
		deps.Logger.Info("excluding duplicate submissions", zap.Int("dropped", dropped), zap.Int("left", b.Len()))
	}
	return b, Step{Initial: initial, Dropped: dropped, Left: b.Len()}, nil
}

type alreadyProcessedFilter struct {
	enabled bool
	reason  string
}

// NewAlreadyProcessed creates a filter that removes submissions whose
// content hash is already in the state store.
func NewAlreadyProcessed() Filter {
	return &alreadyProcessedFilter{enabled: true}
}

func (f *alreadyProcessedFilter) Name() string { return "already_processed" }

func (f *alreadyProcessedFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *alreadyProcessedFilter) IsEnabled() bool { return f.enabled }

func (f *alreadyProcessedFilter) Validate(cfg *Config) error {
	if cfg != nil && cfg.Force {
		f.Disable(forceFlagSetMsg)
	}
	return nil
}

func (f *alreadyProcessedFilter) Apply(_ context.Context, deps Deps, b *Batch) (*Batch, Step, error) {
	initial := b.Len()
	if !f.enabled {
		return b, Step{Initial: initial, Left: initial}, nil
	}
	if deps.State == nil {
		return b, Step{}, fmt.Errorf("state store is required")
	}

	dropped := b.keep(f.Name(), func(s intake.Submission) (string, string) {
		if entry, ok := deps.State.Lookup(s.Hash()); ok {
			return "already processed", entry.OutputPath
		}
		return "", ""
	})

	if deps.Logger != nil && dropped > 0 {
		deps.Logger.Info("excluding already processed submissions", zap.Int("dropped", dropped), zap.Int("left", b.Len()))
	}
	return b, Step{Initial: initial, Dropped: dropped, Left: b.Len()}, nil
}

func (f *alreadyProcessedFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason}
}

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes submissions listed in the
// exclude file, by file name or by content hash, one per line.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, b *Batch) (*Batch, Step, error) {
	initial := b.Len()
	if f.path == "" {
		return b, Step{Initial: initial, Dropped: 0, Left: b.Len()}, nil
	}

	excluded, err := readExcludeFile(f.path)
	if err != nil {
		return b, Step{}, fmt.Errorf("getting excluded submissions from file: %w", err)
	}

	dropped := b.keep(f.Name(), func(s intake.Submission) (string, string) {
		if _, ok := excluded[filepath.Base(s.Path)]; ok {
			return "listed in exclude file", ""
		}
		if _, ok := excluded[s.Hash()]; ok {
			return "listed in exclude file", ""
		}
		return "", ""
	})

	if deps.Logger != nil && dropped > 0 {
		deps.Logger.Info("excluding submissions based on exclude file",
			zap.String("path", f.path),
			zap.Int("dropped", dropped),
			zap.Int("left", b.Len()),
		)
	}
	return b, Step{Initial: initial, Dropped: dropped, Left: b.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

// readExcludeFile treats a missing file as empty. Blank lines and lines
// starting with # are ignored.
func readExcludeFile(path string) (map[string]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}
	defer file.Close()

	out := map[string]struct{}{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out[line] = struct{}{}
	}
	return out, scanner.Err()
}

type targetQualityFilter struct {
	minScore float64
	weights  scoring.Table
}

// NewTargetQuality creates a filter that drops the whole batch when the
// configured target scores below the minimum on its own.
func NewTargetQuality() Filter {
	return &targetQualityFilter{}
}

func (f *targetQualityFilter) Name() string { return "target_quality" }

func (f *targetQualityFilter) Disable(string) {}

func (f *targetQualityFilter) IsEnabled() bool { return true }

func (f *targetQualityFilter) Validate(cfg *Config) error {
	f.minScore, f.weights = 0, nil
	if cfg == nil {
		return nil
	}
	if cfg.MinTargetScore < 0 || cfg.MinTargetScore > 100 {
		return fmt.Errorf("min-target-score %.2f outside [0, 100]", cfg.MinTargetScore)
	}
	f.minScore, f.weights = cfg.MinTargetScore, cfg.Weights
	return nil
}

func (f *targetQualityFilter) Apply(_ context.Context, deps Deps, b *Batch) (*Batch, Step, error) {
	initial := b.Len()
	if f.minScore <= 0 || deps.Target == nil {
		return b, Step{Initial: initial, Left: initial}, nil
	}

	report := scoring.ScoreTarget(*deps.Target, f.weights)
	if report.Total >= f.minScore {
		return b, Step{Initial: initial, Left: initial}, nil
	}

	if deps.Logger != nil {
		var weakest []string
		for _, rec := range scoring.Recommendations(report) {
			weakest = append(weakest, rec.Category)
		}
		deps.Logger.Warn("target description is below the quality threshold",
			zap.Float64("score", report.Total),
			zap.Float64("min_score", f.minScore),
			zap.Strings("weakest_categories", weakest),
		)
	}

	reason := "target score " + strconv.FormatFloat(report.Total, 'f', 2, 64) + " below minimum"
	dropped := b.keep(f.Name(), func(intake.Submission) (string, string) { return reason, "" })
	return b, Step{Initial: initial, Dropped: dropped, Left: b.Len()}, nil
}

func (f *targetQualityFilter) Status() Status {
	details := map[string]string{}
	if f.minScore > 0 {
		details["min_score"] = strconv.FormatFloat(f.minScore, 'f', 2, 64)
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
