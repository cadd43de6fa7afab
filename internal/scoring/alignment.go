package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spigell/ats-tuner/internal/resume"
)

const (
	// DefaultSampleSize bounds the term lists stored in report details.
	DefaultSampleSize   = 20
	recentTitles        = 3
	missingTitlesScore  = 25
	multiTokenSkillHits = 0.6
	minSectionHits      = 2
)

// Option tunes a scoring call.
type Option func(*options)

type options struct {
	sampleSize int
}

// WithSampleSize caps matched and missing term lists. Counts stay exact.
func WithSampleSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.sampleSize = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{sampleSize: DefaultSampleSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ScoreAlignment rates how well a resume matches a target description.
func ScoreAlignment(doc resume.Document, target Target, weights Table, opts ...Option) Report {
	o := buildOptions(opts)
	targetTerms := ExtractKeywords(target.Text())

	return newReport(KindAlignment, weights, map[string]signal{
		"keyword_overlap":   keywordOverlap(doc, targetTerms, o),
		"skills_overlap":    skillsOverlap(doc, target, o),
		"role_alignment":    roleAlignment(doc, target),
		"section_relevance": sectionRelevance(doc, targetTerms),
	})
}

func keywordOverlap(doc resume.Document, targetTerms map[string]struct{}, o options) signal {
	if len(targetTerms) == 0 {
		return signal{score: 0, details: map[string]any{"reason": "target_has_no_terms", "missing": []string{}}}
	}

	docTerms := ExtractKeywords(doc.Text())
	matched := intersect(targetTerms, docTerms)
	missing := difference(targetTerms, docTerms)
	r := ratio(len(matched), len(targetTerms))

	return signal{score: 100 * math.Sqrt(r), details: map[string]any{
		"target_terms":   len(targetTerms),
		"document_terms": len(docTerms),
		"matched_count":  len(matched),
		"missing_count":  len(missing),
		"ratio":          round(r),
		"matched":        sample(matched, o.sampleSize),
		"missing":        sample(missing, o.sampleSize),
	}}
}

func skillsOverlap(doc resume.Document, target Target, o options) signal {
	skills := map[string]struct{}{}
	for _, s := range doc.Skills() {
		skills[strings.ToLower(s)] = struct{}{}
	}
	if len(skills) == 0 {
		return signal{score: 0, details: map[string]any{"reason": "document_has_no_skills"}}
	}

	targetTerms := ExtractKeywords(target.Title + " " + target.Description)

	matched := []string{}
	for _, skill := range sortedSet(skills) {
		terms := ExtractKeywords(skill)
		if len(terms) == 0 {
			continue
		}
		hits := len(intersect(terms, targetTerms))
		if len(terms) == 1 && hits == 1 {
			matched = append(matched, skill)
			continue
		}
		if len(terms) > 1 && ratio(hits, len(terms)) >= multiTokenSkillHits {
			matched = append(matched, skill)
		}
	}

	r := ratio(len(matched), len(skills))
	return signal{score: 100 * r, details: map[string]any{
		"document_skill_count": len(skills),
		"matched_skill_count":  len(matched),
		"ratio":                round(r),
		"matched":              sample(matched, o.sampleSize),
	}}
}

func roleAlignment(doc resume.Document, target Target) signal {
	title := strings.TrimSpace(target.Title)
	if title == "" {
		return signal{score: 0, details: map[string]any{"reason": "missing_target_title"}}
	}

	var titles []string
	for i, e := range doc.Experience() {
		if i >= recentTitles {
			break
		}
		if e.Title != "" {
			titles = append(titles, e.Title)
		}
	}
	if len(titles) == 0 {
		if h := doc.Headline(); h != "" {
			titles = append(titles, h)
		}
	}
	if len(titles) == 0 {
		return signal{score: missingTitlesScore, details: map[string]any{"reason": "missing_document_titles"}}
	}

	targetTerms := ExtractKeywords(title)
	if len(targetTerms) == 0 {
		return signal{score: 0, details: map[string]any{"reason": "target_title_has_no_terms"}}
	}

	best, bestTitle := 0.0, ""
	for _, t := range titles {
		terms := ExtractKeywords(t)
		if len(terms) == 0 {
			continue
		}
		r := ratio(len(intersect(targetTerms, terms)), len(targetTerms))
		if r > best {
			best, bestTitle = r, t
		}
	}

	return signal{score: 100 * math.Sqrt(best), details: map[string]any{
		"target_title":  title,
		"best_title":    bestTitle,
		"overlap_ratio": round(best),
	}}
}

// sectionRelevance counts the resume sections that mention at least
// minSectionHits target terms.
func sectionRelevance(doc resume.Document, targetTerms map[string]struct{}) signal {
	if len(targetTerms) == 0 {
		return signal{score: 0, details: map[string]any{"reason": "target_has_no_terms"}}
	}

	type section struct {
		name string
		text string
	}

	var sections []section
	if s := doc.Summary(); s != "" {
		sections = append(sections, section{name: "summary", text: s})
	}
	if skills := doc.Skills(); len(skills) > 0 {
		sections = append(sections, section{name: "skills", text: strings.Join(skills, " ")})
	}
	for i, e := range doc.Experience() {
		sections = append(sections, section{
			name: fmt.Sprintf("experience[%d]", i),
			text: strings.Join(append([]string{e.Title, e.Company}, e.Bullets...), " "),
		})
	}
	for i, p := range doc.Projects() {
		sections = append(sections, section{name: fmt.Sprintf("projects[%d]", i), text: p.Name + " " + p.Description})
	}

	if len(sections) == 0 {
		return signal{score: 0, details: map[string]any{"reason": "document_has_no_sections"}}
	}

	relevant := 0
	irrelevant := []string{}
	for _, s := range sections {
		if len(intersect(ExtractKeywords(s.text), targetTerms)) >= minSectionHits {
			relevant++
		} else {
			irrelevant = append(irrelevant, s.name)
		}
	}

	return signal{score: 100 * ratio(relevant, len(sections)), details: map[string]any{
		"sections":   len(sections),
		"relevant":   relevant,
		"irrelevant": irrelevant,
	}}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
