// Package prompts builds the role specific prompts sent to agents.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultRevisionGoals steer the reviser when the caller supplies none.
var DefaultRevisionGoals = []string{
	"Improve ATS keyword alignment without inventing experience",
	"Quantify impact where the source supports it",
	"Keep formatting consistent and concise",
}

// SystemInstruction returns the system prompt for role, or an empty string.
func SystemInstruction(role string) string {
	switch role {
	case "enhancer":
		return "You are a resume writer who turns raw resumes into clean structured JSON."
	case "reviser":
		return "You are an ATS resume editor. You improve resumes without fabricating facts."
	case "job_summarizer":
		return "You are a technical recruiter who condenses job postings."
	default:
		return ""
	}
}

// Enhance asks for a structured version of raw resume text, optionally tailored to a job.
func Enhance(resumeText, jobDescription string) string {
	var b strings.Builder
	b.WriteString("Rewrite the resume below for clarity and impact. Prefer action verbs and measurable results.\n")
	b.WriteString("Return a JSON object with the top-level keys personal_info, summary, experience, education, skills, projects.\n")
	b.WriteString("personal_info is an object (name, email, phone, linkedin, github, portfolio).\n")
	b.WriteString("experience, education and projects are arrays of objects. Experience entries carry title, company, start_date, end_date and a bullets array.\n")
	b.WriteString("skills is an array of strings. summary is a string.\n")

	if jd := strings.TrimSpace(jobDescription); jd != "" {
		b.WriteString("\nTailor the resume to this job description and mirror its terminology where it is truthful:\n")
		b.WriteString(jd)
		b.WriteString("\n")
	}

	b.WriteString("\nRaw resume:\n")
	b.WriteString(strings.TrimSpace(resumeText))
	b.WriteString("\n\nAnswer with the raw JSON object only, without markdown fences or commentary.")
	return b.String()
}

// Revise asks the reviser to improve a structured resume. feedback names the
// weakest scoring categories.
func Revise(doc map[string]any, jobDescription, feedback string, goals []string) (string, error) {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode resume: %w", err)
	}

	if len(goals) == 0 {
		goals = DefaultRevisionGoals
	}

	var b strings.Builder
	b.WriteString("Revise the JSON resume below to make it stronger.\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Never invent employers, dates, degrees or certifications.\n")
	b.WriteString("- Rephrasing for clarity and impact is allowed.\n")
	b.WriteString("- Keep exactly the same JSON schema as the input.\n")
	b.WriteString("- Answer with a raw JSON object only, no markdown fences.\n")
	b.WriteString("\nGoals:\n")
	for _, goal := range goals {
		fmt.Fprintf(&b, "- %s\n", goal)
	}

	if fb := strings.TrimSpace(feedback); fb != "" {
		b.WriteString("\nScoring feedback:\n")
		b.WriteString(fb)
		b.WriteString("\n")
	}

	if jd := strings.TrimSpace(jobDescription); jd != "" {
		b.WriteString("\nJob description to tailor to:\n")
		b.WriteString(jd)
		b.WriteString("\n")
	}

	b.WriteString("\nCurrent resume JSON:\n")
	b.Write(payload)
	b.WriteString("\n")
	return b.String(), nil
}

// SummarizeJob asks for a compact plain text digest of a job posting.
func SummarizeJob(jobDescription string) string {
	var b strings.Builder
	b.WriteString("Summarize the job description below. Answer in plain text with these sections:\n")
	b.WriteString("1) Role in one line\n")
	b.WriteString("2) Main responsibilities (5 bullets)\n")
	b.WriteString("3) Required qualifications (5 bullets)\n")
	b.WriteString("4) Nice to have (3 bullets)\n")
	b.WriteString("5) Keywords worth mirroring in a resume, comma separated\n")
	b.WriteString("\nJob description:\n")
	b.WriteString(strings.TrimSpace(jobDescription))
	b.WriteString("\n")
	return b.String()
}
