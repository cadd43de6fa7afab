package scoring

import (
	"strings"

	"github.com/spigell/ats-tuner/internal/resume"
)

const (
	minDescriptionLength = 200
	clarityLength        = 1200
	clarityMarkers       = 4
)

var sectionMarkers = []string{
	"requirements", "responsibilities", "qualifications", "what you will",
	"benefits", "nice to have", "about you", "about the role",
}

// Target is a job description an optimized resume is aligned against.
type Target struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Company     string `json:"company,omitempty" yaml:"company,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Salary      string `json:"salary,omitempty" yaml:"salary,omitempty"`
}

// Text joins the fields used for keyword matching.
func (t Target) Text() string {
	return strings.Join([]string{t.Title, t.Description, t.Company, t.Location}, " ")
}

// Hash fingerprints the content of the target.
func (t Target) Hash() string {
	return resume.Fingerprint(strings.Join([]string{t.ID, t.Title, t.Company, t.Location, t.Description, t.URL, t.Salary}, "\x00"))
}

// ScoreTarget rates the job description itself, independent of any resume.
func ScoreTarget(target Target, weights Table) Report {
	return newReport(KindTarget, weights, map[string]signal{
		"completeness":              targetCompleteness(target),
		"clarity":                   targetClarity(target),
		"compensation_transparency": compensation(target),
		"link_quality":              linkQuality(target),
	})
}

func known(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, "unknown")
}

func targetCompleteness(t Target) signal {
	description := strings.TrimSpace(t.Description)
	checklist := []checkItem{
		{name: "title", present: known(t.Title), weight: 0.20},
		{name: "company", present: known(t.Company), weight: 0.20},
		{name: "location", present: known(t.Location), weight: 0.15},
		{name: "description", present: len(description) >= minDescriptionLength, weight: 0.35},
		{name: "url", present: strings.TrimSpace(t.URL) != "", weight: 0.10},
	}

	var score float64
	missing := []string{}
	for _, item := range checklist {
		if item.present {
			score += item.weight
		} else {
			missing = append(missing, item.name)
		}
	}

	return signal{score: score * 100, details: map[string]any{
		"missing":            missing,
		"description_length": len(description),
	}}
}

func targetClarity(t Target) signal {
	description := strings.TrimSpace(t.Description)
	if description == "" {
		return signal{score: 0, details: map[string]any{"reason": "missing_description"}}
	}

	lower := strings.ToLower(description)
	hits := 0
	for _, marker := range sectionMarkers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}

	lengthScore := 100 * saturate(float64(len(description)), clarityLength)
	sectionScore := 100 * saturate(float64(hits), clarityMarkers)

	return signal{score: lengthScore*0.65 + sectionScore*0.35, details: map[string]any{
		"description_length": len(description),
		"section_hits":       hits,
	}}
}

func compensation(t Target) signal {
	has := strings.TrimSpace(t.Salary) != ""
	score := 0.0
	if has {
		score = 100
	}
	return signal{score: score, details: map[string]any{"has_salary": has}}
}

func linkQuality(t Target) signal {
	url := strings.TrimSpace(t.URL)
	switch {
	case url == "":
		return signal{score: 0, details: map[string]any{"reason": "missing_url"}}
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return signal{score: 100, details: map[string]any{"url": url}}
	default:
		return signal{score: 30, details: map[string]any{"url": url}}
	}
}
