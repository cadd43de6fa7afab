package scoring

import (
	"fmt"
	"strings"

	"github.com/spigell/ats-tuner/internal/resume"
)

const (
	skillsSaturation  = 12
	longSkillLength   = 32
	longSkillPenalty  = 7.5
	maxSkillPenalty   = 30
	bulletsSaturation = 10
)

type checkItem struct {
	name    string
	present bool
	weight  float64
}

// ScoreDocument rates a structured resume on its own merits.
func ScoreDocument(doc resume.Document, weights Table) Report {
	return newReport(KindDocument, weights, map[string]signal{
		"completeness":       documentCompleteness(doc),
		"skills_quality":     skillsQuality(doc),
		"experience_quality": experienceQuality(doc),
		"impact":             impact(doc),
		"consistency":        consistency(doc),
	})
}

func documentCompleteness(doc resume.Document) signal {
	checklist := []checkItem{
		{name: "name", present: doc.Name() != "", weight: 0.10},
		{name: "email", present: doc.Email() != "", weight: 0.10},
		{name: "summary", present: doc.Summary() != "", weight: 0.15},
		{name: "experience", present: doc.ExperienceCount() > 0, weight: 0.25},
		{name: "education", present: doc.EducationCount() > 0, weight: 0.15},
		{name: "skills", present: len(doc.Skills()) > 0, weight: 0.20},
		{name: "projects", present: doc.ProjectCount() > 0, weight: 0.05},
	}

	var score float64
	present := []string{}
	missing := []string{}
	for _, item := range checklist {
		if item.present {
			score += item.weight
			present = append(present, item.name)
		} else {
			missing = append(missing, item.name)
		}
	}

	return signal{score: score * 100, details: map[string]any{
		"present":          present,
		"missing":          missing,
		"experience_count": doc.ExperienceCount(),
		"education_count":  doc.EducationCount(),
		"skills_count":     len(doc.Skills()),
		"projects_count":   doc.ProjectCount(),
	}}
}

func skillsQuality(doc resume.Document) signal {
	skills := doc.Skills()
	unique := make(map[string]struct{}, len(skills))
	tooLong := 0
	for _, s := range skills {
		unique[strings.ToLower(s)] = struct{}{}
		if len(s) > longSkillLength {
			tooLong++
		}
	}

	countScore := 100 * saturate(float64(len(unique)), skillsSaturation)
	penalty := float64(tooLong) * longSkillPenalty
	if penalty > maxSkillPenalty {
		penalty = maxSkillPenalty
	}

	return signal{score: countScore - penalty, details: map[string]any{
		"unique_skill_count": len(unique),
		"too_long_skills":    tooLong,
	}}
}

func allBullets(exp []resume.Experience) []string {
	var out []string
	for _, e := range exp {
		out = append(out, e.Bullets...)
	}
	return out
}

func experienceQuality(doc resume.Document) signal {
	exp := doc.Experience()
	if len(exp) == 0 && doc.ExperienceCount() == 0 {
		return signal{score: 0, details: map[string]any{"reason": "no_experience_entries"}}
	}

	bullets := allBullets(exp)
	if len(bullets) == 0 {
		return signal{score: 15, details: map[string]any{"reason": "experience_without_bullets"}}
	}

	action, quantified := 0, 0
	for _, b := range bullets {
		if looksLikeActionBullet(b) {
			action++
		}
		if containsNumber(b) {
			quantified++
		}
	}

	actionRatio := ratio(action, len(bullets))
	quantRatio := ratio(quantified, len(bullets))
	score := saturate(float64(len(bullets)), bulletsSaturation)*35 + actionRatio*35 + quantRatio*30

	return signal{score: score, details: map[string]any{
		"total_bullets":      len(bullets),
		"action_bullets":     action,
		"quantified_bullets": quantified,
		"action_ratio":       round(actionRatio),
		"quantified_ratio":   round(quantRatio),
	}}
}

func impact(doc resume.Document) signal {
	exp := doc.Experience()
	if len(exp) == 0 && doc.ExperienceCount() == 0 {
		return signal{score: 0, details: map[string]any{"reason": "no_experience_entries"}}
	}

	bullets := allBullets(exp)
	if len(bullets) == 0 {
		return signal{score: 10, details: map[string]any{"reason": "no_bullets"}}
	}

	quantified, outcome, strong := 0, 0, 0
	for _, b := range bullets {
		num := containsNumber(b)
		out := containsOutcome(b)
		if num {
			quantified++
		}
		if out {
			outcome++
		}
		if looksLikeActionBullet(b) && (num || out) {
			strong++
		}
	}

	n := len(bullets)
	score := ratio(quantified, n)*45 + ratio(outcome, n)*35 + ratio(strong, n)*20

	return signal{score: score, details: map[string]any{
		"bullets":          n,
		"quantified":       quantified,
		"outcome":          outcome,
		"strong":           strong,
		"quantified_ratio": round(ratio(quantified, n)),
		"outcome_ratio":    round(ratio(outcome, n)),
		"strong_ratio":     round(ratio(strong, n)),
	}}
}

// consistency checks that every role ends after it starts and that roles
// are listed most recent first.
func consistency(doc resume.Document) signal {
	exp := doc.Experience()

	type span struct {
		label      string
		start, end int
		hasStart   bool
		hasEnd     bool
	}

	spans := make([]span, 0, len(exp))
	for i, e := range exp {
		s := span{label: fmt.Sprintf("experience[%d]", i)}
		s.start, s.hasStart = resume.MonthIndex(e.Start)
		s.end, s.hasEnd = resume.MonthIndex(e.End)
		spans = append(spans, s)
	}

	checks, passed := 0, 0
	issues := []string{}

	for _, s := range spans {
		if !s.hasStart || !s.hasEnd {
			continue
		}
		checks++
		if s.end >= s.start {
			passed++
		} else {
			issues = append(issues, s.label+": ends before it starts")
		}
	}

	var prev *span
	for i := range spans {
		s := &spans[i]
		if !s.hasStart {
			continue
		}
		if prev != nil {
			checks++
			if prev.start >= s.start {
				passed++
			} else {
				issues = append(issues, fmt.Sprintf("%s: listed before a more recent role (%s)", prev.label, s.label))
			}
		}
		prev = s
	}

	if checks == 0 {
		return signal{score: 50, details: map[string]any{"reason": "no_dates"}}
	}

	return signal{score: 100 * ratio(passed, checks), details: map[string]any{
		"checks": checks,
		"passed": passed,
		"issues": issues,
	}}
}
