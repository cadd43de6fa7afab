package prompts

import (
	"strings"
	"testing"
)

func TestEnhanceIncludesJobWhenPresent(t *testing.T) {
	with := Enhance("John Doe, Go developer", "Backend engineer, Kubernetes")
	if !strings.Contains(with, "Kubernetes") || !strings.Contains(with, "John Doe") {
		t.Fatalf("expected resume and job in prompt: %q", with)
	}

	without := Enhance("John Doe", "   ")
	if strings.Contains(without, "Tailor the resume") {
		t.Fatalf("did not expect tailoring section: %q", without)
	}
}

func TestReviseEmbedsDocumentAndFeedback(t *testing.T) {
	prompt, err := Revise(map[string]any{"skills": []string{"go"}}, "", "impact is weak", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, want := range []string{`"skills"`, "impact is weak", DefaultRevisionGoals[0]} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected %q in prompt", want)
		}
	}
}

func TestSystemInstruction(t *testing.T) {
	if SystemInstruction("reviser") == "" {
		t.Fatalf("expected reviser instruction")
	}
	if SystemInstruction("unknown") != "" {
		t.Fatalf("expected empty instruction for unknown role")
	}
}
