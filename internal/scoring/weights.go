package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ErrUnbalancedWeights is returned by ValidateWeights.
var ErrUnbalancedWeights = errors.New("unbalanced weights")

const weightTolerance = 1e-6

// Table is a nested weights mapping: report kind to category to weight.
type Table map[Kind]map[string]float64

var categoryOrder = map[Kind][]string{
	KindDocument:  {"completeness", "skills_quality", "experience_quality", "impact", "consistency"},
	KindAlignment: {"keyword_overlap", "skills_overlap", "role_alignment", "section_relevance"},
	KindTarget:    {"completeness", "clarity", "compensation_transparency", "link_quality"},
	KindOverall:   {"document", "alignment"},
}

// DefaultWeights returns a fresh copy of the built-in table.
func DefaultWeights() Table {
	return Table{
		KindDocument: {
			"completeness":       0.25,
			"skills_quality":     0.15,
			"experience_quality": 0.25,
			"impact":             0.20,
			"consistency":        0.15,
		},
		KindAlignment: {
			"keyword_overlap":   0.40,
			"skills_overlap":    0.30,
			"role_alignment":    0.15,
			"section_relevance": 0.15,
		},
		KindTarget: {
			"completeness":              0.35,
			"clarity":                   0.35,
			"compensation_transparency": 0.15,
			"link_quality":              0.15,
		},
		KindOverall: {
			"document":  0.45,
			"alignment": 0.55,
		},
	}
}

var kindAliases = map[string]Kind{
	"document":  KindDocument,
	"resume":    KindDocument,
	"alignment": KindAlignment,
	"match":     KindAlignment,
	"target":    KindTarget,
	"job":       KindTarget,
	"overall":   KindOverall,
}

// effective resolves the raw weights for kind. An absent sub-table means the
// defaults. A present one is authoritative: omitted categories weigh zero and
// only invalid entries fall back to the default, with a warning.
func (t Table) effective(kind Kind) (map[string]float64, []string) {
	defaults := DefaultWeights()[kind]
	supplied := t[kind]
	out := make(map[string]float64, len(defaults))
	var warnings []string

	for name, def := range defaults {
		if len(supplied) == 0 {
			out[name] = def
			continue
		}
		v, ok := supplied[name]
		if !ok {
			out[name] = 0
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			warnings = append(warnings, fmt.Sprintf("%s.%s: invalid weight %v, using default %.2f", kind, name, v, def))
			out[name] = def
			continue
		}
		out[name] = v
	}

	for name := range supplied {
		if _, known := defaults[name]; !known {
			warnings = append(warnings, fmt.Sprintf("%s.%s: unknown category ignored", kind, name))
		}
	}
	sort.Strings(warnings)

	return out, warnings
}

// Weights returns the normalized weights for kind, resolved the way
// effective does. Non-positive weights count as zero; when
// nothing positive remains every category gets an equal share.
func (t Table) Weights(kind Kind) (map[string]float64, []string) {
	raw, warnings := t.effective(kind)

	var sum float64
	for _, v := range raw {
		if v > 0 {
			sum += v
		}
	}

	out := make(map[string]float64, len(raw))
	for name, v := range raw {
		switch {
		case sum <= 0:
			out[name] = 1 / float64(len(raw))
		case v > 0:
			out[name] = v / sum
		default:
			out[name] = 0
		}
	}

	if sum <= 0 {
		warnings = append(warnings, fmt.Sprintf("%s: no positive weights, using equal shares", kind))
	}
	return out, warnings
}

// ValidateWeights checks that every supplied sub-table holds finite
// non-negative weights summing to one. Omitted categories count as zero.
func ValidateWeights(t Table) error {
	for _, kind := range []Kind{KindDocument, KindAlignment, KindTarget, KindOverall} {
		if _, present := t[kind]; !present {
			continue
		}

		var sum float64
		for name, v := range t[kind] {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: %s.%s is %v", ErrUnbalancedWeights, kind, name, v)
			}
		}

		raw, _ := t.effective(kind)
		for _, v := range raw {
			sum += v
		}
		if math.Abs(sum-1) > weightTolerance {
			return fmt.Errorf("%w: %s weights sum to %.6f, want 1.0", ErrUnbalancedWeights, kind, sum)
		}
	}
	return nil
}

// Hash fingerprints the normalized table so cached scores are tied to the
// exact weights that produced them.
func (t Table) Hash() string {
	var lines []string
	for kind := range categoryOrder {
		weights, _ := t.Weights(kind)
		for name, v := range weights {
			lines = append(lines, fmt.Sprintf("%s.%s=%.9f", kind, name, v))
		}
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// LoadWeights reads a weights file (yaml, toml or json, by extension).
// Sub-tables may hold the weights directly or under a "weights" key.
// Non-numeric values are dropped with a warning so the defaults apply.
func LoadWeights(path string) (Table, []string, error) {
	table := Table{}
	path = strings.TrimSpace(path)
	if path == "" {
		return table, nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read weights file %q: %w", path, err)
	}

	var warnings []string
	settings := v.AllSettings()

	groups := make([]string, 0, len(settings))
	for group := range settings {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		kind, ok := kindAliases[strings.ToLower(group)]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: unknown weights group ignored", group))
			continue
		}

		entries, ok := settings[group].(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: expected a table of weights", group))
			continue
		}
		if nested, ok := entries["weights"].(map[string]any); ok {
			entries = nested
		}

		if table[kind] == nil {
			table[kind] = map[string]float64{}
		}
		for name, raw := range entries {
			f, ok := toFloat(raw)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("%s.%s: %v is not a number, using default", kind, name, raw))
				continue
			}
			table[kind][strings.ToLower(name)] = f
		}
	}

	return table, warnings, nil
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
