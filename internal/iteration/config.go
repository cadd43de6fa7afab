package iteration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrInvalidConfig   = errors.New("invalid iteration config")
)

// Strategy decides when the optimization loop stops and which candidate it returns.
type Strategy string

const (
	StrategyBestOf   Strategy = "best_of"
	StrategyFirstHit Strategy = "first_hit"
	StrategyPatience Strategy = "patience"
)

const (
	DefaultTargetScore    = 80
	DefaultMaxIterations  = 3
	DefaultMaxRegressions = 2
	DefaultPatienceLimit  = 2
)

// ParseStrategy accepts any casing, and dashes in place of underscores.
func ParseStrategy(raw string) (Strategy, error) {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	switch Strategy(s) {
	case StrategyBestOf, StrategyFirstHit, StrategyPatience:
		return Strategy(s), nil
	case "":
		return StrategyBestOf, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, raw)
	}
}

// Config controls one optimization run.
type Config struct {
	Strategy       Strategy `mapstructure:"strategy"`
	TargetScore    float64  `mapstructure:"target-score"`
	MaxIterations  int      `mapstructure:"max-iterations"`
	MaxRegressions int      `mapstructure:"max-regressions"`
	PatienceLimit  int      `mapstructure:"patience"`

	// MinScoreDelta is how much a candidate must beat the best score by
	// to count as an improvement.
	MinScoreDelta float64 `mapstructure:"min-score-delta"`

	// TieImproves makes a candidate that exactly matches best plus delta count as improving.
	TieImproves bool `mapstructure:"tie-improves"`
}

func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyBestOf,
		TargetScore:    DefaultTargetScore,
		MaxIterations:  DefaultMaxIterations,
		MaxRegressions: DefaultMaxRegressions,
		PatienceLimit:  DefaultPatienceLimit,
	}
}

// Normalize parses the strategy and checks ranges.
func (c Config) Normalize() (Config, error) {
	strategy, err := ParseStrategy(string(c.Strategy))
	if err != nil {
		return c, err
	}
	c.Strategy = strategy

	switch {
	case c.TargetScore < 0 || c.TargetScore > 100:
		return c, fmt.Errorf("%w: target-score %.2f outside [0, 100]", ErrInvalidConfig, c.TargetScore)
	case c.MaxIterations < 0:
		return c, fmt.Errorf("%w: max-iterations must not be negative", ErrInvalidConfig)
	case c.MaxRegressions < 1:
		return c, fmt.Errorf("%w: max-regressions must be at least 1", ErrInvalidConfig)
	case c.PatienceLimit < 1:
		return c, fmt.Errorf("%w: patience must be at least 1", ErrInvalidConfig)
	case c.MinScoreDelta < 0:
		return c, fmt.Errorf("%w: min-score-delta must not be negative", ErrInvalidConfig)
	}
	return c, nil
}

func (c Config) improves(candidate, best float64) bool {
	diff := candidate - best
	if c.TieImproves {
		return diff >= c.MinScoreDelta
	}
	return diff > c.MinScoreDelta
}
