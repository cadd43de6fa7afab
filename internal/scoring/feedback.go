package scoring

import (
	"fmt"
	"sort"
	"strings"
)

const (
	weakThreshold     = 50
	moderateThreshold = 70
)

// Severity of a recommendation.
const (
	SeverityWeak     = "weak"
	SeverityModerate = "moderate"
)

var hints = map[string]string{
	"completeness":              "add the missing sections (contact details, summary, experience, education, skills)",
	"skills_quality":            "list more distinct, concise skills",
	"experience_quality":        "write more bullets that start with an action verb and carry numbers",
	"impact":                    "state measurable outcomes such as cost, latency, revenue or percentages",
	"consistency":               "fix date ranges and list roles most recent first",
	"keyword_overlap":           "mirror the terminology of the job description where it is truthful",
	"skills_overlap":            "surface skills the job asks for that the candidate actually has",
	"role_alignment":            "make recent titles and the headline reflect the target role",
	"section_relevance":         "mention target terms in the summary and experience, not only in skills",
	"clarity":                   "the description is short or lacks requirement markers",
	"compensation_transparency": "the opportunity does not state compensation",
	"link_quality":              "the opportunity has no usable link",
}

// Recommendation points at one category that scored below threshold.
type Recommendation struct {
	Kind     Kind    `json:"kind"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Severity string  `json:"severity"`
	Hint     string  `json:"hint"`
}

func (r Recommendation) String() string {
	return fmt.Sprintf("%s %s.%s (%.1f): %s", r.Severity, r.Kind, r.Category, r.Score, r.Hint)
}

// Recommendations lists weak and moderate categories across reports,
// lowest score first.
func Recommendations(reports ...Report) []Recommendation {
	var out []Recommendation
	for _, report := range reports {
		for _, c := range report.Categories {
			if c.Weight <= 0 {
				continue
			}
			severity := ""
			switch {
			case c.Score < weakThreshold:
				severity = SeverityWeak
			case c.Score < moderateThreshold:
				severity = SeverityModerate
			default:
				continue
			}
			out = append(out, Recommendation{
				Kind:     report.Kind,
				Category: c.Name,
				Score:    c.Score,
				Severity: severity,
				Hint:     hints[c.Name],
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Feedback renders recommendations as plain text for the reviser prompt.
// Missing sections and keywords from the details are appended when known.
func Feedback(reports ...Report) string {
	recs := Recommendations(reports...)
	if len(recs) == 0 {
		return "All categories are healthy. Polish wording without changing facts."
	}

	var b strings.Builder
	for _, rec := range recs {
		b.WriteString("- ")
		b.WriteString(rec.String())
		b.WriteString("\n")
	}

	for _, report := range reports {
		if c, ok := report.Category("completeness"); ok && report.Kind == KindDocument {
			if missing, ok := c.Details["missing"].([]string); ok && len(missing) > 0 {
				fmt.Fprintf(&b, "Missing sections: %s\n", strings.Join(missing, ", "))
			}
		}
		if c, ok := report.Category("keyword_overlap"); ok {
			if missing, ok := c.Details["missing"].([]string); ok && len(missing) > 0 {
				fmt.Fprintf(&b, "Target terms not found: %s\n", strings.Join(missing, ", "))
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
