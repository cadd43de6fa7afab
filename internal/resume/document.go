// Package resume holds the structured resume document produced by the
// enhancer and consumed by the scorers.
package resume

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Section keys of a structured resume.
const (
	KeyPersonalInfo = "personal_info"
	KeySummary      = "summary"
	KeyExperience   = "experience"
	KeyEducation    = "education"
	KeySkills       = "skills"
	KeyProjects     = "projects"
)

// Document is a decoded JSON resume. Unknown keys are preserved untouched.
type Document map[string]any

// Experience is the normalized view of one experience entry.
type Experience struct {
	Title    string
	Company  string
	Location string
	Start    string
	End      string
	Bullets  []string
}

// Education is the normalized view of one education entry.
type Education struct {
	Degree      string
	Institution string
}

// Project is the normalized view of one project entry.
type Project struct {
	Name        string
	Description string
	Link        string
}

// Fingerprint returns the SHA-256 hex digest of raw input text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Parse decodes a JSON object into a Document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode resume: not a json object")
	}
	return doc, nil
}

// Hash fingerprints the canonical JSON encoding. Map keys are sorted by
// encoding/json, so equal documents hash equally.
func (d Document) Hash() string {
	data, err := json.Marshal(d)
	if err != nil {
		return Fingerprint(fmt.Sprintf("%v", map[string]any(d)))
	}
	return Fingerprint(string(data))
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return d
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return d
	}
	return out
}

// PersonalInfo returns the personal_info object, or nil.
func (d Document) PersonalInfo() map[string]any {
	info, _ := d[KeyPersonalInfo].(map[string]any)
	return info
}

func (d Document) Name() string {
	return stringOf(d.PersonalInfo()["name"])
}

func (d Document) Email() string {
	return stringOf(d.PersonalInfo()["email"])
}

// Headline falls back to the title of the most recent role.
func (d Document) Headline() string {
	if h := stringOf(d.PersonalInfo()["headline"]); h != "" {
		return h
	}
	if exp := d.Experience(); len(exp) > 0 {
		return exp[0].Title
	}
	return ""
}

// Summary accepts a plain string or a list of sentences.
func (d Document) Summary() string {
	switch v := d[KeySummary].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		return strings.Join(stringsOf(v), " ")
	case map[string]any:
		return stringOf(v["text"])
	default:
		return ""
	}
}

// Skills returns trimmed, non-empty skill names. Grouped skills
// ({"languages": [...]}) are flattened.
func (d Document) Skills() []string {
	switch v := d[KeySkills].(type) {
	case []any:
		var out []string
		for _, item := range v {
			switch s := item.(type) {
			case string:
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				if name := stringOf(s["name"]); name != "" {
					out = append(out, name)
				}
				if list, ok := s["skills"].([]any); ok {
					out = append(out, stringsOf(list)...)
				}
			}
		}
		return out
	case map[string]any:
		var out []string
		for _, group := range sortedKeys(v) {
			if list, ok := v[group].([]any); ok {
				out = append(out, stringsOf(list)...)
			}
		}
		return out
	default:
		return nil
	}
}

// Experience returns entries in document order, which is expected to be most recent first.
func (d Document) Experience() []Experience {
	var out []Experience
	for _, entry := range objects(d[KeyExperience]) {
		out = append(out, Experience{
			Title:    firstString(entry, "title", "position", "role"),
			Company:  firstString(entry, "company", "employer", "organization"),
			Location: stringOf(entry["location"]),
			Start:    firstString(entry, "start_date", "start", "from"),
			End:      firstString(entry, "end_date", "end", "to"),
			Bullets:  bullets(entry),
		})
	}
	return out
}

// ExperienceCount counts experience items of any shape.
func (d Document) ExperienceCount() int { return count(d[KeyExperience]) }

func (d Document) Education() []Education {
	var out []Education
	for _, entry := range objects(d[KeyEducation]) {
		out = append(out, Education{
			Degree:      firstString(entry, "degree", "title"),
			Institution: firstString(entry, "institution", "school", "university"),
		})
	}
	return out
}

func (d Document) EducationCount() int { return count(d[KeyEducation]) }

func (d Document) Projects() []Project {
	var out []Project
	for _, entry := range objects(d[KeyProjects]) {
		out = append(out, Project{
			Name:        stringOf(entry["name"]),
			Description: strings.Join(textLines(entry["description"]), " "),
			Link:        firstString(entry, "link", "url"),
		})
	}
	return out
}

func (d Document) ProjectCount() int { return count(d[KeyProjects]) }

// Text flattens the document into newline separated plain text for keyword matching.
func (d Document) Text() string {
	var parts []string
	add := func(values ...string) {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
	}

	info := d.PersonalInfo()
	add(stringOf(info["name"]), stringOf(info["headline"]), stringOf(info["location"]))
	add(d.Summary())
	add(d.Skills()...)
	for _, exp := range d.Experience() {
		add(exp.Title, exp.Company, exp.Location)
		add(exp.Bullets...)
	}
	for _, edu := range d.Education() {
		add(edu.Degree, edu.Institution)
	}
	for _, p := range d.Projects() {
		add(p.Name, p.Description, p.Link)
	}

	return strings.Join(parts, "\n")
}

func bullets(entry map[string]any) []string {
	for _, key := range []string{"bullets", "highlights", "achievements", "responsibilities", "description"} {
		if lines := textLines(entry[key]); len(lines) > 0 {
			return lines
		}
	}
	return nil
}

// textLines splits a string on newlines or collects the strings of a list.
func textLines(v any) []string {
	switch val := v.(type) {
	case string:
		var out []string
		for _, line := range strings.Split(val, "\n") {
			line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
			if line != "" {
				out = append(out, line)
			}
		}
		return out
	case []any:
		return stringsOf(val)
	default:
		return nil
	}
}

func objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func count(v any) int {
	list, _ := v.([]any)
	return len(list)
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringOf(obj[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringOf(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	default:
		return ""
	}
}

func stringsOf(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := stringOf(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
