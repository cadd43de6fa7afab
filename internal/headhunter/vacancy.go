package headhunter

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/spigell/ats-tuner/internal/scoring"
)

type Vacancies struct {
	Items []*Vacancy
}

type Named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Salary struct {
	From     int    `json:"from,omitempty"`
	To       int    `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
	Gross    bool   `json:"gross,omitempty"`
}

type Vacancy struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name,omitempty"`
	Area         Named   `json:"area,omitempty"`
	Salary       *Salary `json:"salary,omitempty"`
	Experience   Named   `json:"experience,omitempty"`
	Schedule     Named   `json:"schedule,omitempty"`
	Employment   Named   `json:"employment,omitempty"`
	AlternateURL string  `json:"alternate_url,omitempty"`
	Employer     struct {
		ID      string `json:"id,omitempty"`
		Name    string `json:"name,omitempty"`
		Trusted bool   `json:"trusted,omitempty"`
	} `json:"employer,omitempty"`
	Description string  `json:"description,omitempty"`
	KeySkills   []Named `json:"key_skills,omitempty"`
	Archived    bool    `json:"archived,omitempty"`
	Snipet      struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

// Label is a one line description used in interactive selection.
func (va *Vacancy) Label() string {
	parts := []string{va.Name}
	if va.Employer.Name != "" {
		parts = append(parts, va.Employer.Name)
	}
	if va.Area.Name != "" {
		parts = append(parts, va.Area.Name)
	}
	if s := va.SalaryText(); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " | ")
}

func (va *Vacancy) SalaryText() string {
	s := va.Salary
	if s == nil || (s.From == 0 && s.To == 0) {
		return ""
	}
	switch {
	case s.From > 0 && s.To > 0:
		return strings.TrimSpace(fmt.Sprintf("%d-%d %s", s.From, s.To, s.Currency))
	case s.From > 0:
		return strings.TrimSpace(fmt.Sprintf("from %d %s", s.From, s.Currency))
	default:
		return strings.TrimSpace(fmt.Sprintf("up to %d %s", s.To, s.Currency))
	}
}

// Target converts the vacancy into an alignment target. Search results
// carry only a snippet; the full description is used when present.
func (va *Vacancy) Target() scoring.Target {
	description := PlainText(va.Description)
	if description == "" {
		description = strings.TrimSpace(PlainText(va.Snipet.Requirement) + "\n" + PlainText(va.Snipet.Responsibility))
	}
	if len(va.KeySkills) > 0 {
		skills := make([]string, 0, len(va.KeySkills))
		for _, s := range va.KeySkills {
			skills = append(skills, s.Name)
		}
		description = strings.TrimSpace(description + "\nKey skills: " + strings.Join(skills, ", "))
	}

	return scoring.Target{
		ID:          va.ID,
		Title:       va.Name,
		Company:     va.Employer.Name,
		Location:    va.Area.Name,
		Description: description,
		URL:         va.AlternateURL,
		Salary:      va.SalaryText(),
	}
}

// PlainText drops markup from hh.ru descriptions and snippets. Block
// elements become line breaks.
func PlainText(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return strings.TrimSpace(raw)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapse(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "p", "br", "li", "ul", "ol", "div", "h1", "h2", "h3", "h4":
				b.WriteString("\n")
			}
		}
	}
}

func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
