// Package scoring computes deterministic, inspectable quality scores for a
// structured resume, for a target job description, and for the alignment
// between the two.
package scoring

import "math"

// Kind names a report type and its weights sub-table.
type Kind string

const (
	KindDocument  Kind = "document"
	KindAlignment Kind = "alignment"
	KindTarget    Kind = "target"
	KindOverall   Kind = "overall"
)

// Category is one weighted signal inside a report.
type Category struct {
	Name    string         `json:"name"`
	Score   float64        `json:"score"`
	Weight  float64        `json:"weight"`
	Details map[string]any `json:"details,omitempty"`
}

// Report is the immutable result of a scoring call. Category weights sum
// to one and Total is their weighted score, clamped to [0, 100].
type Report struct {
	Kind       Kind       `json:"kind"`
	Total      float64    `json:"total"`
	Categories []Category `json:"categories"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// Category returns the named category.
func (r Report) Category(name string) (Category, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

type signal struct {
	score   float64
	details map[string]any
}

func newReport(kind Kind, weights Table, signals map[string]signal) Report {
	normalized, warnings := weights.Weights(kind)

	categories := make([]Category, 0, len(categoryOrder[kind]))
	for _, name := range categoryOrder[kind] {
		s := signals[name]
		categories = append(categories, Category{
			Name:    name,
			Score:   round(clamp(s.score)),
			Weight:  normalized[name],
			Details: s.details,
		})
	}

	return Report{
		Kind:       kind,
		Total:      round(weightedTotal(categories)),
		Categories: categories,
		Warnings:   warnings,
	}
}

// weightedTotal divides by the weight sum so rounding drift never skews the
// total. With no usable weight it falls back to the plain mean.
func weightedTotal(categories []Category) float64 {
	if len(categories) == 0 {
		return 0
	}

	var weightSum, acc, plain float64
	for _, c := range categories {
		weightSum += c.Weight
		acc += c.Score * c.Weight
		plain += c.Score
	}

	if weightSum <= 0 {
		return clamp(plain / float64(len(categories)))
	}
	return clamp(acc / weightSum)
}

func clamp(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Max(0, math.Min(100, x))
}

func round(x float64) float64 {
	return math.Round(x*100) / 100
}

func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func saturate(value, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Min(1, value/limit)
}
